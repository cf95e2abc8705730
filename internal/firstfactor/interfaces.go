// Package firstfactor はクライアント設定に応じたファーストファクター
// 検証（なし・ディレクトリ・上流RADIUS委譲）を提供する。
package firstfactor

import (
	"context"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/auth"
)

// Authenticator は単一のファーストファクター検証方式を表す。
// 検証結果はrc.State.FirstFactorに書き込まれる。
// エラーは方式自体の実行不能（設定不備等）のみを表す。
type Authenticator interface {
	Authenticate(ctx context.Context, rc *auth.RequestContext) error
}
