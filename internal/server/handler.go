package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"layeh.com/radius"
	"layeh.com/radius/rfc2865"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/auth"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/guard"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/logging"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/pipeline"
	internalradius "github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/radius"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/store"
)

// Handler はRADIUSリクエストを処理するハンドラ。
// layeh.com/radius.Handlerインターフェースの実装。
type Handler struct {
	engine      pipeline.Processor
	clientStore store.ClientStore
	detector    *guard.Detector
	cfg         *config.Config
	dict        internalradius.Dictionary
	startedAt   time.Time
}

// NewHandler は新しいHandlerを生成する
func NewHandler(engine pipeline.Processor, cs store.ClientStore, detector *guard.Detector, cfg *config.Config) *Handler {
	return &Handler{
		engine:      engine,
		clientStore: cs,
		detector:    detector,
		cfg:         cfg,
		dict:        internalradius.DefaultDictionary(),
		startedAt:   time.Now(),
	}
}

// ServeRADIUS はRADIUSリクエストを処理する
func (h *Handler) ServeRADIUS(w radius.ResponseWriter, r *radius.Request) {
	traceID := uuid.New().String()
	srcIP := extractIP(r.RemoteAddr)

	slog.Info("RADIUSパケット受信",
		"event_id", "PKT_RECV",
		"trace_id", traceID,
		"src_ip", srcIP,
		"code", r.Code,
	)

	switch r.Code {
	case radius.CodeAccessRequest:
		h.handleAccessRequest(w, r, traceID, srcIP)

	case radius.CodeStatusServer:
		h.handleStatusServer(w, r, traceID)

	default:
		// Access-Request以外は応答なしで破棄する
		slog.Warn("未対応のRADIUS Code",
			"event_id", "PKT_UNKNOWN_CODE",
			"trace_id", traceID,
			"code", r.Code,
		)
	}
}

// handleStatusServer はStatus-Serverヘルスチェックに応答する
func (h *Handler) handleStatusServer(w radius.ResponseWriter, r *radius.Request, traceID string) {
	if !internalradius.VerifyMessageAuthenticator(r.Packet, r.Packet.Secret) {
		slog.Warn("Status-ServerのMessage-Authenticator検証失敗",
			"event_id", "PKT_MA_INVALID",
			"trace_id", traceID,
		)
		return
	}
	resp := internalradius.HandleStatusServer(r.Packet, r.Packet.Secret, h.startedAt)
	if err := w.Write(resp); err != nil {
		slog.Error("RADIUS応答送信失敗",
			"event_id", "PKT_SEND_ERR",
			"trace_id", traceID,
			"error", err,
		)
	}
}

// handleAccessRequest はAccess-Requestを処理する
func (h *Handler) handleAccessRequest(w radius.ResponseWriter, r *radius.Request, traceID, srcIP string) {
	ctx := context.Background()

	// 全属性を辞書で検証する。未知の属性タイプや型不整合を含む
	// データグラムは応答なしで破棄する
	if _, err := h.dict.DecodeAll(r.Packet); err != nil {
		slog.Warn("属性デコード失敗、パケット破棄",
			"event_id", "PKT_ATTR_INVALID",
			"trace_id", traceID,
			"src_ip", srcIP,
			"error", err.Error(),
		)
		return
	}

	// Message-Authenticator付きの場合は検証する（RFC 3579）
	if internalradius.HasMessageAuthenticator(r.Packet) &&
		!internalradius.VerifyMessageAuthenticator(r.Packet, r.Packet.Secret) {
		slog.Warn("Message-Authenticator検証失敗",
			"event_id", "PKT_MA_INVALID",
			"trace_id", traceID,
			"src_ip", srcIP,
		)
		return
	}

	client, err := h.resolveClient(ctx, srcIP)
	if err != nil {
		slog.Warn("クライアント設定未登録、パケット破棄",
			"event_id", "CLIENT_UNKNOWN",
			"trace_id", traceID,
			"src_ip", srcIP,
		)
		return
	}

	// 再送データグラムは初回処理に委ねて破棄する
	if !h.detector.ShouldProcess(ctx, r.Packet, r.RemoteAddr.String()) {
		return
	}

	rc := &auth.RequestContext{
		TraceID:    traceID,
		ReceivedAt: time.Now(),
		RemoteAddr: r.RemoteAddr.String(),
		Client:     client,
		Request:    r.Packet,
		Secret:     r.Packet.Secret,
	}

	if err := h.engine.Process(ctx, rc); err != nil {
		slog.Error("判定エンジンエラー",
			"event_id", "ENGINE_ERR",
			"trace_id", traceID,
			"error", err,
		)
		return
	}

	if rc.SuppressReply {
		slog.Info("応答送出を抑止",
			"event_id", "REPLY_SUPPRESSED",
			"trace_id", traceID,
		)
		return
	}

	h.writeResponse(w, r, rc, traceID)
}

// resolveClient は送信元IPのクライアント設定を解決する。
// Valkey未登録時はデフォルトクライアント設定にフォールバックする。
func (h *Handler) resolveClient(ctx context.Context, srcIP string) (*config.ClientConfig, error) {
	client, err := h.clientStore.GetClient(ctx, srcIP)
	if err == nil {
		return client, nil
	}
	if errors.Is(err, store.ErrClientNotFound) {
		if def := h.cfg.DefaultClient(); def != nil {
			return def, nil
		}
	}
	return nil, err
}

// writeResponse は判定結果からRADIUS応答を構築して送出する
func (h *Handler) writeResponse(w radius.ResponseWriter, r *radius.Request, rc *auth.RequestContext, traceID string) {
	secret := r.Packet.Secret
	proxyStates := internalradius.ExtractProxyStates(r.Packet)

	userName := logging.MaskUserName(rc.UserName, h.cfg.LogMaskUserName)

	var resp *radius.Packet
	switch rc.ResponseCode {
	case radius.CodeAccessAccept:
		params := &internalradius.AcceptParams{
			ReplyMessage: rc.ReplyMessage,
			ProxyStates:  proxyStates,
		}
		// 上流RADIUSが返したClass/Service-Type属性を引き継ぐ
		if rc.UpstreamResponse != nil {
			params.Class = rfc2865.Class_Get(rc.UpstreamResponse)
			params.ServiceType = rfc2865.ServiceType_Get(rc.UpstreamResponse)
		}
		resp = internalradius.BuildAccessAccept(r.Packet, secret, params)

	case radius.CodeAccessChallenge:
		resp = internalradius.BuildAccessChallenge(r.Packet, secret, &internalradius.ChallengeParams{
			ReplyMessage: rc.ReplyMessage,
			State:        rc.StateToken,
			ProxyStates:  proxyStates,
		})

	default:
		resp = internalradius.BuildAccessReject(r.Packet, secret, &internalradius.RejectParams{
			ReplyMessage: rc.ReplyMessage,
			ProxyStates:  proxyStates,
		})
	}

	slog.Info("RADIUS応答送出",
		"event_id", "PKT_SEND",
		"trace_id", traceID,
		"code", resp.Code,
		"user_name", userName,
		"latency_ms", time.Since(rc.ReceivedAt).Milliseconds(),
	)

	if err := w.Write(resp); err != nil {
		slog.Error("RADIUS応答送信失敗",
			"event_id", "PKT_SEND_ERR",
			"trace_id", traceID,
			"error", err,
		)
	}
}
