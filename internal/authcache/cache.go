// Package authcache は認証済みクライアントキャッシュを提供する。
// セカンドファクター成功後の一定期間、同一端末からの再認証で
// 第二要素をバイパスさせる。
package authcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/store"
)

// Cache は認証済みクライアントキャッシュのフロントエンド。
// キャッシュIDはクライアント名・Calling-Station-Id・ユーザー名の
// 組から導出される。
type Cache struct {
	store store.AuthCacheStore
}

// NewCache は新しいCacheを生成する。
func NewCache(s store.AuthCacheStore) *Cache {
	return &Cache{store: s}
}

// cacheID はキャッシュキーを導出する。生の識別情報をキーに載せない。
func cacheID(clientName, callingStationID, userName string) string {
	h := sha256.Sum256([]byte(clientName + "|" + callingStationID + "|" + userName))
	return hex.EncodeToString(h[:])
}

// TryHit はキャッシュヒットを判定する。
// ヒットした場合は第二要素をバイパスしてよい。
// 無効化構成・Calling-Station-Id欠落（minimalMatching無効時）・
// 期限切れ・Valkey障害はいずれもミスとして扱う。
func (c *Cache) TryHit(ctx context.Context, client *config.ClientConfig, callingStationID, userName string) bool {
	if client == nil || !client.AuthCacheEnabled {
		return false
	}
	if callingStationID == "" && !client.AuthCacheMinimalMatching {
		return false
	}

	id := cacheID(client.Name, callingStationID, userName)
	entry, err := c.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrCacheEntryNotFound) {
			slog.Warn("auth cache lookup failed",
				"event_id", "AUTHCACHE_GET_ERR",
				"error", err.Error(),
			)
		}
		return false
	}

	// TTLはストア側でも設定されるが、設定変更で有効期間が
	// 短縮された場合に備えて記録時刻でも判定する
	age := time.Since(time.Unix(entry.AuthenticatedAt, 0))
	if age > client.AuthCacheLifetime() {
		_ = c.store.Delete(ctx, id)
		return false
	}

	slog.Info("auth cache hit, second factor bypassed",
		"event_id", "AUTHCACHE_HIT",
		"client", client.Name,
	)
	return true
}

// Set はセカンドファクター成功を記録する。
// 記録失敗は認証結果に影響させない。
func (c *Cache) Set(ctx context.Context, client *config.ClientConfig, callingStationID, userName string) {
	if client == nil || !client.AuthCacheEnabled || client.AuthCacheLifetimeSec <= 0 {
		return
	}
	if callingStationID == "" && !client.AuthCacheMinimalMatching {
		return
	}

	id := cacheID(client.Name, callingStationID, userName)
	entry := &store.AuthCacheEntry{
		ClientName:      client.Name,
		UserName:        userName,
		AuthenticatedAt: time.Now().Unix(),
	}
	if err := c.store.Set(ctx, id, entry, client.AuthCacheLifetime()); err != nil {
		slog.Warn("auth cache record failed",
			"event_id", "AUTHCACHE_SET_ERR",
			"error", err.Error(),
		)
	}
}
