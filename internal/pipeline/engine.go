package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"layeh.com/radius"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/auth"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/authcache"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/challenge"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/directory"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/firstfactor"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/mfa"
	internalradius "github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/radius"
)

// Engine はProcessorの実装
type Engine struct {
	dispatcher *firstfactor.Dispatcher
	provider   *challenge.Provider
	cache      *authcache.Cache
	mfaClient  mfa.Client
	dir        directory.Directory
}

// NewEngine は新しい判定エンジンを生成する。
func NewEngine(
	dispatcher *firstfactor.Dispatcher,
	provider *challenge.Provider,
	cache *authcache.Cache,
	mfaClient mfa.Client,
	dir directory.Directory,
) *Engine {
	return &Engine{
		dispatcher: dispatcher,
		provider:   provider,
		cache:      cache,
		mfaClient:  mfaClient,
		dir:        dir,
	}
}

// Process はAccess-Request 1件を判定する。
func (e *Engine) Process(ctx context.Context, rc *auth.RequestContext) error {
	if _, hasState := internalradius.GetState(rc.Request); hasState {
		err := e.provider.Resume(ctx, rc)
		switch {
		case err == nil:
			if rc.Decided() {
				return nil
			}
			return e.continueAfterResume(ctx, rc)
		case errors.Is(err, challenge.ErrUnknownState):
			// 未知のStateは原則Reject。ただしOTP事前認証構成では
			// NASが独自にStateを付けてくるケースがあるため新規として扱う
			if rc.Client.Mode() != config.PreAuthOTP {
				slog.Info("unknown state token rejected",
					"event_id", "STATE_UNKNOWN",
					"trace_id", rc.TraceID,
					"client", rc.Client.Name,
				)
				rc.SetReject("")
				return nil
			}
		default:
			slog.Error("challenge resume failed",
				"event_id", "CHALLENGE_RESUME_ERR",
				"trace_id", rc.TraceID,
				"error", err.Error(),
			)
			rc.SetReject("")
			return nil
		}
	}

	return e.processFresh(ctx, rc)
}

// processFresh はチャレンジ継続ではない新規リクエストを処理する。
func (e *Engine) processFresh(ctx context.Context, rc *auth.RequestContext) error {
	rawName, ok := internalradius.GetUserName(rc.Request)
	if !ok {
		slog.Info("user-name missing, rejecting",
			"event_id", "USERNAME_MISSING",
			"trace_id", rc.TraceID,
		)
		rc.SetReject("")
		return nil
	}
	rc.UserName = firstfactor.RewriteUserName(rc.Client, rawName)

	e.loadProfile(ctx, rc)
	if rc.Decided() {
		return nil
	}

	// 認証済みクライアントキャッシュによる第二要素バイパス
	callingStation, _ := internalradius.GetCallingStationID(rc.Request)
	if e.cache.TryHit(ctx, rc.Client, callingStation, rc.UserName) {
		rc.State.SecondFactor = auth.StatusBypass
	}

	// 事前認証構成では第二要素を先に実行する
	if rc.Client.Mode() != config.PreAuthNone {
		if err := e.runSecondFactor(ctx, rc); err != nil {
			return err
		}
		if rc.Decided() {
			return nil
		}
		if err := e.runFirstFactor(ctx, rc); err != nil {
			return err
		}
	} else {
		if err := e.runFirstFactor(ctx, rc); err != nil {
			return err
		}
		if rc.Decided() {
			return nil
		}
		if err := e.runSecondFactor(ctx, rc); err != nil {
			return err
		}
	}
	if rc.Decided() {
		return nil
	}

	e.finalize(ctx, rc)
	return nil
}

// continueAfterResume はチャレンジ継続後に残っている要素を実行する。
func (e *Engine) continueAfterResume(ctx context.Context, rc *auth.RequestContext) error {
	if !rc.State.FirstFactor.Passed() && rc.State.FirstFactor != auth.StatusReject {
		if err := e.runFirstFactor(ctx, rc); err != nil {
			return err
		}
		if rc.Decided() {
			return nil
		}
	}
	if !rc.State.SecondFactor.Passed() && rc.State.SecondFactor != auth.StatusReject {
		if err := e.runSecondFactor(ctx, rc); err != nil {
			return err
		}
		if rc.Decided() {
			return nil
		}
	}

	e.finalize(ctx, rc)
	return nil
}

// loadProfile はディレクトリプロファイルを取得する。
// ディレクトリ構成でユーザーが見つからない場合はRejectを確定させる。
func (e *Engine) loadProfile(ctx context.Context, rc *auth.RequestContext) {
	if rc.Client.LDAPURL == "" || rc.Profile != nil {
		return
	}

	conn := directory.ConnFromClient(rc.Client)
	profile, err := e.dir.Search(ctx, conn, rc.UserName)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) && rc.Client.Source() == config.SourceDirectory {
			slog.Info("user not found in directory",
				"event_id", "DIR_USER_NOT_FOUND",
				"trace_id", rc.TraceID,
			)
			rc.SetReject("")
			return
		}
		slog.Warn("profile load failed, continuing without profile",
			"event_id", "DIR_SEARCH_ERR",
			"trace_id", rc.TraceID,
			"error", err.Error(),
		)
		return
	}
	rc.Profile = profile
}

// runFirstFactor はファーストファクター検証を実行する。
// パスワード期限切れ検出時はパスワード変更フローを開始する。
func (e *Engine) runFirstFactor(ctx context.Context, rc *auth.RequestContext) error {
	if rc.State.FirstFactor.Passed() {
		return nil
	}

	if err := e.dispatcher.Dispatch(ctx, rc); err != nil {
		slog.Error("first factor dispatch failed",
			"event_id", "FF_DISPATCH_ERR",
			"trace_id", rc.TraceID,
			"error", err.Error(),
		)
		rc.SetReject("")
		return nil
	}

	if rc.MustChangePassword {
		return e.provider.StartPasswordChange(ctx, rc, rc.PasswordDomain)
	}

	if rc.State.FirstFactor == auth.StatusReject {
		rc.SetReject(rc.ReplyMessage)
		return nil
	}

	// メンバーシップ検査はファーストファクター成立後にのみ意味を持つ
	e.checkMembership(rc)
	return nil
}

// checkMembership は必須グループ所属を検査する。
func (e *Engine) checkMembership(rc *auth.RequestContext) {
	if !rc.Client.CheckMembership {
		return
	}
	required := rc.Client.Groups()
	if len(required) == 0 {
		return
	}

	if rc.Profile != nil {
		for _, g := range rc.Profile.MemberOf {
			for _, want := range required {
				if g == want {
					return
				}
			}
		}
	}

	slog.Info("required group membership not satisfied",
		"event_id", "MEMBERSHIP_DENIED",
		"trace_id", rc.TraceID,
		"client", rc.Client.Name,
	)
	rc.State.FirstFactor = auth.StatusReject
	rc.SetReject("")
}

// finalize は両要素の状態から最終応答コードを導出する。
func (e *Engine) finalize(ctx context.Context, rc *auth.RequestContext) {
	if rc.Decided() {
		return
	}

	if rc.State.Accepted() {
		rc.ResponseCode = radius.CodeAccessAccept
		// 第二要素を実際に通過した場合のみキャッシュに記録する
		if rc.State.SecondFactor == auth.StatusAccept {
			callingStation, _ := internalradius.GetCallingStationID(rc.Request)
			e.cache.Set(ctx, rc.Client, callingStation, rc.UserName)
		}
		slog.Info("access accepted",
			"event_id", "ACCESS_ACCEPT",
			"trace_id", rc.TraceID,
			"client", rc.Client.Name,
		)
		return
	}

	rc.SetReject(rc.ReplyMessage)
	slog.Info("access rejected",
		"event_id", "ACCESS_REJECT",
		"trace_id", rc.TraceID,
		"client", rc.Client.Name,
		"first_factor", rc.State.FirstFactor.String(),
		"second_factor", rc.State.SecondFactor.String(),
	)
}
