package challenge

import (
	"context"
	"errors"
	"log/slog"

	"layeh.com/radius/vendors/microsoft"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/auth"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/mfa"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/store"
)

// AddSecondFactorContext は第二要素の追加入力待ちコンテキストを保存し、
// Access-Challenge応答をセットする。
func (p *Provider) AddSecondFactorContext(ctx context.Context, rc *auth.RequestContext, mfaRequestID, replyMessage string) error {
	rc.MFARequestID = mfaRequestID
	pc, err := snapshot(rc, KindSecondFactor)
	if err != nil {
		return err
	}
	pc.ReplyMessage = replyMessage

	token := newStateToken()
	key := NewIdentifier(rc.Client.Name, token).Key()
	if err := p.store.Create(ctx, key, pc); err != nil {
		return err
	}

	rc.SetChallenge(token, replyMessage)
	slog.Info("second factor challenge issued",
		"event_id", "CHALLENGE_ISSUED",
		"trace_id", rc.TraceID,
		"client", rc.Client.Name,
	)
	return nil
}

// extractAnswer はチャレンジ応答からユーザー入力を取り出す。
// PAPはUser-Password、MSCHAPv2はMS-CHAP2-Responseの
// 応答フィールド先頭6バイトを使用する。
func extractAnswer(rc *auth.RequestContext) (string, error) {
	if resp := microsoft.MSCHAP2Response_Get(rc.Request); len(resp) >= 8 {
		return string(resp[2:8]), nil
	}
	return rc.Password()
}

// processSecondFactor はチャレンジ応答入力をMFA APIへ送信し、
// 判定結果に応じて状態遷移する。
func (p *Provider) processSecondFactor(ctx context.Context, rc *auth.RequestContext, key string, state []byte, pc *store.PendingChallenge) error {
	answer, err := extractAnswer(rc)
	if err != nil {
		_ = p.store.Delete(ctx, key)
		rc.SetReject("")
		return nil
	}

	// 退避していた第一要素のパスフレーズを書き戻す。
	// 応答抽出より前に戻すとPAPのワンタイムコードと取り違える
	rc.Passphrase = pc.Passphrase

	resp, err := p.mfa.Challenge(ctx, &mfa.ChallengeRequest{
		Identity:  pc.UserName,
		Challenge: answer,
		RequestID: pc.MFARequestID,
	})
	if err != nil {
		if errors.Is(err, mfa.ErrUnreachable) && rc.Client.BypassOnUnreachable {
			slog.Warn("mfa api unreachable, second factor bypassed",
				"event_id", "MFA_BYPASS",
				"trace_id", rc.TraceID,
				"client", rc.Client.Name,
			)
			_ = p.store.Delete(ctx, key)
			rc.State.SecondFactor = auth.StatusBypass
			return nil
		}
		_ = p.store.Delete(ctx, key)
		rc.SetReject("")
		return nil
	}

	switch {
	case resp.IsGranted():
		_ = p.store.Delete(ctx, key)
		rc.State.SecondFactor = auth.StatusAccept
		rc.ReplyMessage = resp.ReplyMessage
		slog.Info("second factor granted",
			"event_id", "MFA_GRANTED",
			"trace_id", rc.TraceID,
		)
	case resp.IsAwaiting():
		// さらに入力が必要。TTLをリフレッシュして同一トークンで再チャレンジする
		updates := map[string]any{
			"mfa_request_id": resp.RequestID,
			"reply_message":  resp.ReplyMessage,
		}
		if err := p.store.Update(ctx, key, updates); err != nil {
			rc.SetReject("")
			return nil
		}
		rc.SetChallenge(state, resp.ReplyMessage)
	default:
		_ = p.store.Delete(ctx, key)
		rc.State.SecondFactor = auth.StatusReject
		rc.SetReject(resp.ReplyMessage)
		slog.Info("second factor denied",
			"event_id", "MFA_DENIED",
			"trace_id", rc.TraceID,
		)
	}
	return nil
}
