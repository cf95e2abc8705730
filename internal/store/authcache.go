package store

import (
	"context"
	"fmt"
	"time"
)

// AuthCacheEntry はセカンドファクター成功の記録。
type AuthCacheEntry struct {
	ClientName      string `redis:"client_name"`
	UserName        string `redis:"user_name"`
	AuthenticatedAt int64  `redis:"authenticated_at"`
}

// authCacheStore はAuthCacheStoreの実装。
type authCacheStore struct {
	vc *ValkeyClient
}

// NewAuthCacheStore は新しいAuthCacheStoreを生成する。
func NewAuthCacheStore(vc *ValkeyClient) AuthCacheStore {
	return &authCacheStore{vc: vc}
}

// Set はキャッシュエントリをTTL付きで保存する。
func (s *authCacheStore) Set(ctx context.Context, id string, entry *AuthCacheEntry, ttl time.Duration) error {
	k := KeyPrefixAuthCache + id
	m := StructToMap(entry)

	pipe := s.vc.Client().Pipeline()
	pipe.HSet(ctx, k, m)
	pipe.Expire(ctx, k, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrValkeyUnavailable, err)
	}
	return nil
}

// Get はキャッシュエントリを取得する。
func (s *authCacheStore) Get(ctx context.Context, id string) (*AuthCacheEntry, error) {
	k := KeyPrefixAuthCache + id
	m, err := s.vc.Client().HGetAll(ctx, k).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValkeyUnavailable, err)
	}
	if len(m) == 0 {
		return nil, ErrCacheEntryNotFound
	}

	var entry AuthCacheEntry
	if err := MapToStruct(m, &entry); err != nil {
		return nil, fmt.Errorf("auth cache entry deserialization error: %w", err)
	}
	return &entry, nil
}

// Delete はキャッシュエントリを削除する。存在しなくてもエラーにしない。
func (s *authCacheStore) Delete(ctx context.Context, id string) error {
	k := KeyPrefixAuthCache + id
	if err := s.vc.Client().Del(ctx, k).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrValkeyUnavailable, err)
	}
	return nil
}
