package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/auth"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/mfa"
	internalradius "github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/radius"
)

// runSecondFactor は第二要素判定を実行する。
func (e *Engine) runSecondFactor(ctx context.Context, rc *auth.RequestContext) error {
	if rc.State.SecondFactor.Passed() {
		return nil
	}

	req := e.buildAccessRequest(rc)
	resp, err := e.mfaClient.CreateSecondFactorRequest(ctx, req)
	if err != nil {
		e.handleSecondFactorError(rc, err)
		return nil
	}

	switch {
	case resp.IsGranted():
		rc.State.SecondFactor = auth.StatusAccept
		rc.ReplyMessage = resp.ReplyMessage
		slog.Info("second factor granted",
			"event_id", "MFA_GRANTED",
			"trace_id", rc.TraceID,
		)
	case resp.IsAwaiting():
		// 追加入力が必要。保留コンテキストを保存してAccess-Challengeを返す
		return e.provider.AddSecondFactorContext(ctx, rc, resp.RequestID, resp.ReplyMessage)
	default:
		rc.State.SecondFactor = auth.StatusReject
		rc.SetReject(resp.ReplyMessage)
		slog.Info("second factor denied",
			"event_id", "MFA_DENIED",
			"trace_id", rc.TraceID,
		)
	}
	return nil
}

// handleSecondFactorError はMFA API到達不能時のバイパスポリシーを適用する。
func (e *Engine) handleSecondFactorError(rc *auth.RequestContext, err error) {
	if errors.Is(err, mfa.ErrUnreachable) && rc.Client.BypassOnUnreachable {
		slog.Warn("mfa api unreachable, second factor bypassed",
			"event_id", "MFA_BYPASS",
			"trace_id", rc.TraceID,
			"client", rc.Client.Name,
		)
		rc.State.SecondFactor = auth.StatusBypass
		return
	}
	slog.Error("second factor request failed",
		"event_id", "MFA_ERR",
		"trace_id", rc.TraceID,
		"error", err.Error(),
	)
	rc.State.SecondFactor = auth.StatusReject
	rc.SetReject("")
}

// buildAccessRequest はMFA API向けの第二要素判定リクエストを組み立てる。
func (e *Engine) buildAccessRequest(rc *auth.RequestContext) *mfa.AccessRequest {
	req := &mfa.AccessRequest{
		Identity:      rc.UserName,
		Authenticator: base64.StdEncoding.EncodeToString(rc.Request.Authenticator[:]),
	}
	if v, ok := internalradius.GetCallingStationID(rc.Request); ok {
		req.CallingStationID = v
	}
	if v, ok := internalradius.GetCalledStationID(rc.Request); ok {
		req.CalledStationID = v
	}
	if v, ok := internalradius.GetNASIdentifier(rc.Request); ok {
		req.NASIdentifier = v
	}
	if rc.Profile != nil {
		req.Name = rc.Profile.Name
		req.Email = rc.Profile.Email
		req.Phone = rc.Profile.Phone
		req.GroupList = strings.Join(rc.Profile.MemberOf, ",")
	}

	// OTP事前認証構成ではパスワード欄の値をワンタイムコードとして送る
	if rc.Client.Mode() == config.PreAuthOTP {
		if code, err := rc.Password(); err == nil {
			req.PassCode = code
		}
	}
	return req
}
