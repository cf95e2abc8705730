package store

import (
	"context"
	"time"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"
)

// ClientStore はNASクライアント設定へのアクセスを定義する
type ClientStore interface {
	// GetClient は送信元IPに対応するClientConfigを取得する。
	// 未登録の場合はErrClientNotFoundを返す。
	GetClient(ctx context.Context, ip string) (*config.ClientConfig, error)

	// GetClientSecret は送信元IPのShared Secretを取得する。
	// 未登録の場合は空文字列とnilを返す。
	GetClientSecret(ctx context.Context, ip string) (string, error)
}

// ChallengeStore はチャレンジ保留コンテキストのCRUD操作を定義する。
// キーはChallengeIdentifierから導出された文字列（クライアント名+Stateトークン）。
type ChallengeStore interface {
	Create(ctx context.Context, key string, pc *PendingChallenge) error
	Get(ctx context.Context, key string) (*PendingChallenge, error)
	Update(ctx context.Context, key string, updates map[string]any) error
	Delete(ctx context.Context, key string) error
}

// RetransmissionStore は再送検出キーの登録を定義する。
type RetransmissionStore interface {
	// MarkIfAbsent はキーが未登録ならTTL付きで登録しtrueを返す。
	// 登録済み（=再送）の場合はfalseを返す。登録はアトミックに行われる。
	MarkIfAbsent(ctx context.Context, key string) (bool, error)
}

// AuthCacheStore は認証済みクライアントキャッシュへのアクセスを定義する。
type AuthCacheStore interface {
	Set(ctx context.Context, id string, entry *AuthCacheEntry, ttl time.Duration) error
	Get(ctx context.Context, id string) (*AuthCacheEntry, error)
	Delete(ctx context.Context, id string) error
}
