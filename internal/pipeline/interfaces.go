// Package pipeline はAccess-Request処理の中核となる判定エンジンを提供する。
// ファーストファクター・セカンドファクターの実行順序制御、
// チャレンジ継続、認証済みキャッシュ、最終判定の導出を担う。
package pipeline

import (
	"context"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/auth"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/mock_pipeline.go -package=mocks

// Processor はAccess-Request 1件の判定処理を表す。
// 処理結果はrc.ResponseCode / rc.SuppressReplyに反映される。
type Processor interface {
	Process(ctx context.Context, rc *auth.RequestContext) error
}
