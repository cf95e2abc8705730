package challenge

import (
	"context"
	"log/slog"
	"strings"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/auth"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/directory"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/store"
)

// rejectMessage はディレクトリのエラーをReply-Message向けに整形する。
// 複数行の診断出力は先頭行のみ返す
func rejectMessage(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return strings.TrimSpace(msg)
}

// StartPasswordChange はパスワード変更フローを開始する。
// 現行パスワードが既知（PAP）なら退避して新パスワード入力から、
// 未知なら現行パスワード入力から始める。
func (p *Provider) StartPasswordChange(ctx context.Context, rc *auth.RequestContext, domain string) error {
	pc, err := snapshot(rc, KindPasswordChange)
	if err != nil {
		return err
	}
	pc.Domain = domain

	prompt := PromptCurrentPassword
	pc.Stage = StageAwaitCurrent

	if current, err := rc.Password(); err == nil && current != "" {
		enc, err := p.box.Seal(current)
		if err != nil {
			return err
		}
		pc.CurrentPasswordEnc = enc
		pc.Stage = StageAwaitNew
		prompt = PromptNewPassword
	}

	token := newStateToken()
	key := NewIdentifier(rc.Client.Name, token).Key()
	if err := p.store.Create(ctx, key, pc); err != nil {
		return err
	}

	rc.SetChallenge(token, prompt)
	slog.Info("password change flow started",
		"event_id", "PWCHANGE_START",
		"trace_id", rc.TraceID,
		"client", rc.Client.Name,
		"domain", domain,
	)
	return nil
}

// processPasswordChange はパスワード変更フローの段階遷移を実行する。
func (p *Provider) processPasswordChange(ctx context.Context, rc *auth.RequestContext, key string, state []byte, pc *store.PendingChallenge) error {
	answer, err := rc.Password()
	if err != nil {
		_ = p.store.Delete(ctx, key)
		rc.SetReject("")
		return nil
	}

	switch pc.Stage {
	case StageAwaitCurrent:
		enc, err := p.box.Seal(answer)
		if err != nil {
			_ = p.store.Delete(ctx, key)
			rc.SetReject("")
			return nil
		}
		updates := map[string]any{
			"current_password_enc": enc,
			"stage":                StageAwaitNew,
		}
		if err := p.store.Update(ctx, key, updates); err != nil {
			rc.SetReject("")
			return nil
		}
		rc.SetChallenge(state, PromptNewPassword)
		return nil

	case StageAwaitNew:
		enc, err := p.box.Seal(answer)
		if err != nil {
			_ = p.store.Delete(ctx, key)
			rc.SetReject("")
			return nil
		}
		updates := map[string]any{
			"new_password_enc": enc,
			"stage":            StageAwaitRepeat,
		}
		if err := p.store.Update(ctx, key, updates); err != nil {
			rc.SetReject("")
			return nil
		}
		rc.SetChallenge(state, PromptRepeatPassword)
		return nil

	case StageAwaitRepeat:
		return p.finishPasswordChange(ctx, rc, key, state, pc, answer)

	default:
		_ = p.store.Delete(ctx, key)
		rc.SetReject("")
		return nil
	}
}

// finishPasswordChange は再入力を検証し、ディレクトリのパスワードを更新する。
func (p *Provider) finishPasswordChange(ctx context.Context, rc *auth.RequestContext, key string, state []byte, pc *store.PendingChallenge, repeat string) error {
	newPassword, err := p.box.Open(pc.NewPasswordEnc)
	if err != nil {
		_ = p.store.Delete(ctx, key)
		rc.SetReject("")
		return nil
	}

	if repeat != newPassword {
		// 不一致は新パスワード入力からやり直す
		updates := map[string]any{
			"new_password_enc": "",
			"stage":            StageAwaitNew,
		}
		if err := p.store.Update(ctx, key, updates); err != nil {
			rc.SetReject("")
			return nil
		}
		rc.SetChallenge(state, MessageMismatch+". "+PromptNewPassword)
		return nil
	}

	currentPassword, err := p.box.Open(pc.CurrentPasswordEnc)
	if err != nil {
		_ = p.store.Delete(ctx, key)
		rc.SetReject("")
		return nil
	}

	conn := directory.ConnFromClient(rc.Client)
	if err := p.dir.ChangePassword(ctx, conn, pc.UserName, currentPassword, newPassword); err != nil {
		slog.Warn("password change failed",
			"event_id", "PWCHANGE_FAILED",
			"trace_id", rc.TraceID,
			"error", err.Error(),
		)
		_ = p.store.Delete(ctx, key)
		rc.SetReject(rejectMessage(err))
		return nil
	}

	_ = p.store.Delete(ctx, key)
	slog.Info("password changed",
		"event_id", "PWCHANGE_DONE",
		"trace_id", rc.TraceID,
		"client", rc.Client.Name,
	)

	// 新パスワードでファーストファクター成立。
	// セカンドファクターが未完ならパイプラインが継続する。
	rc.State.FirstFactor = auth.StatusAccept
	rc.Passphrase = newPassword
	rc.ReplyMessage = PromptPasswordChanged
	return nil
}
