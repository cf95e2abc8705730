package firstfactor

import (
	"context"
	"log/slog"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/auth"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/directory"
)

// directoryAuthenticator はLDAP/ADバインドによるファーストファクター検証
type directoryAuthenticator struct {
	dir directory.Directory
}

// NewDirectory はディレクトリバインドのAuthenticatorを生成する。
func NewDirectory(dir directory.Directory) Authenticator {
	return &directoryAuthenticator{dir: dir}
}

// Authenticate はユーザー資格情報をディレクトリバインドで検証する。
// パスワード期限切れはrc.MustChangePasswordをセットして
// パスワード変更フローへの誘導を依頼する。
func (a *directoryAuthenticator) Authenticate(ctx context.Context, rc *auth.RequestContext) error {
	password, err := rc.Password()
	if err != nil {
		rc.State.FirstFactor = auth.StatusReject
		return nil
	}

	conn := directory.ConnFromClient(rc.Client)
	outcome, err := a.dir.Bind(ctx, conn, rc.UserName, password)
	if err != nil {
		// ディレクトリ到達不能はフェイルクローズ
		slog.Error("directory bind error",
			"event_id", "DIR_BIND_ERR",
			"trace_id", rc.TraceID,
			"error", err.Error(),
		)
		rc.State.FirstFactor = auth.StatusReject
		return nil
	}

	switch outcome {
	case directory.OutcomeSuccess:
		rc.State.FirstFactor = auth.StatusAccept
	case directory.OutcomeMustChangePassword:
		rc.MustChangePassword = true
		rc.PasswordDomain = conn.BaseDN
		rc.State.FirstFactor = auth.StatusUnknown
	default:
		slog.Info("first factor rejected by directory",
			"event_id", "DIR_BIND_REJECT",
			"trace_id", rc.TraceID,
			"outcome", outcome.String(),
		)
		rc.State.FirstFactor = auth.StatusReject
	}
	return nil
}
