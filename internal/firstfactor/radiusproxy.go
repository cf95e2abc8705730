package firstfactor

import (
	"context"
	"errors"
	"log/slog"

	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
	"layeh.com/radius/rfc2869"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/auth"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/proxy"
	internalradius "github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/radius"
)

// radiusAuthenticator は上流RADIUSサーバーへの委譲によるファーストファクター検証
type radiusAuthenticator struct {
	client *proxy.Client
}

// NewRadiusProxy は上流RADIUS委譲のAuthenticatorを生成する。
func NewRadiusProxy(client *proxy.Client) Authenticator {
	return &radiusAuthenticator{client: client}
}

// Authenticate は受信リクエストを上流向けに組み替えて委譲する。
// 上流のAccept/Rejectをそのままファーストファクター結果として採用し、
// タイムアウト時は応答を抑止する（NAS側の再送に委ねる）。
func (a *radiusAuthenticator) Authenticate(ctx context.Context, rc *auth.RequestContext) error {
	upstream, err := a.buildUpstreamRequest(rc)
	if err != nil {
		rc.State.FirstFactor = auth.StatusReject
		return nil
	}

	exCtx, cancel := context.WithTimeout(ctx, config.ProxyTimeout)
	defer cancel()

	resp, err := a.client.Exchange(exCtx, upstream, rc.Client.UpstreamAddr, upstream.Secret)
	if err != nil {
		if errors.Is(err, proxy.ErrTimeout) {
			slog.Warn("upstream radius timeout",
				"event_id", "PROXY_TIMEOUT",
				"trace_id", rc.TraceID,
				"upstream", rc.Client.UpstreamAddr,
			)
			rc.State.FirstFactor = auth.StatusReject
			rc.SuppressReply = true
			return nil
		}
		slog.Error("upstream radius exchange failed",
			"event_id", "PROXY_ERR",
			"trace_id", rc.TraceID,
			"error", err.Error(),
		)
		rc.State.FirstFactor = auth.StatusReject
		return nil
	}

	rc.UpstreamResponse = resp
	switch resp.Code {
	case radius.CodeAccessAccept:
		rc.State.FirstFactor = auth.StatusAccept
	default:
		rc.State.FirstFactor = auth.StatusReject
	}
	return nil
}

// buildUpstreamRequest は受信リクエストを上流向けに組み替える。
// State・Proxy-Stateは伝搬せず、ユーザー名は書き換え後の値を使用し、
// パスワードは上流シークレットで難読化し直す。
func (a *radiusAuthenticator) buildUpstreamRequest(rc *auth.RequestContext) (*radius.Packet, error) {
	upstream := radius.New(radius.CodeAccessRequest, []byte(rc.Client.UpstreamSecret))

	for _, avp := range rc.Request.Attributes {
		switch avp.Type {
		case rfc2865.UserName_Type,
			rfc2865.UserPassword_Type,
			rfc2865.State_Type,
			rfc2865.ProxyState_Type,
			rfc2869.MessageAuthenticator_Type:
			continue
		}
		upstream.Attributes.Add(avp.Type, avp.Attribute)
	}

	if err := rfc2865.UserName_SetString(upstream, rc.UserName); err != nil {
		return nil, err
	}

	password, err := rc.Password()
	if err != nil {
		return nil, err
	}
	if err := internalradius.SetUserPassword(upstream, password); err != nil {
		return nil, err
	}

	if internalradius.HasMessageAuthenticator(rc.Request) {
		internalradius.SetMessageAuthenticator(upstream, upstream.Secret, upstream.Authenticator)
	}

	return upstream, nil
}
