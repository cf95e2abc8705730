package firstfactor

import (
	"context"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/auth"
)

// noneAuthenticator はファーストファクターを実施しない構成。
// パスワード欄にワンタイムコードが入るケースで使用される。
type noneAuthenticator struct{}

// NewNone はファーストファクターなしのAuthenticatorを生成する。
func NewNone() Authenticator {
	return &noneAuthenticator{}
}

// Authenticate はファーストファクターをバイパス扱いにする。
func (a *noneAuthenticator) Authenticate(ctx context.Context, rc *auth.RequestContext) error {
	rc.State.FirstFactor = auth.StatusBypass
	return nil
}
