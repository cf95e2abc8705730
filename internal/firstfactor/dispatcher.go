package firstfactor

import (
	"context"
	"fmt"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/auth"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/directory"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/proxy"
)

// Dispatcher はクライアント設定のAuthenticationSourceに応じて
// ファーストファクター検証方式を選択する。
type Dispatcher struct {
	registry map[config.AuthenticationSource]Authenticator
}

// NewDispatcher は全方式を登録したDispatcherを生成する。
func NewDispatcher(dir directory.Directory, proxyClient *proxy.Client) *Dispatcher {
	return &Dispatcher{
		registry: map[config.AuthenticationSource]Authenticator{
			config.SourceNone:      NewNone(),
			config.SourceDirectory: NewDirectory(dir),
			config.SourceRadius:    NewRadiusProxy(proxyClient),
		},
	}
}

// Dispatch はクライアントの構成に対応するAuthenticatorを実行する。
func (d *Dispatcher) Dispatch(ctx context.Context, rc *auth.RequestContext) error {
	a, ok := d.registry[rc.Client.Source()]
	if !ok {
		return fmt.Errorf("no authenticator registered for source %s", rc.Client.Source())
	}
	return a.Authenticate(ctx, rc)
}
