package store

import "errors"

var (
	// ErrValkeyUnavailable はValkeyへのアクセスに失敗した場合のエラー
	ErrValkeyUnavailable = errors.New("valkey unavailable")

	// ErrClientNotFound はNASクライアント設定が未登録の場合のエラー
	ErrClientNotFound = errors.New("radius client not found")

	// ErrChallengeNotFound はチャレンジ保留コンテキストが存在しない場合のエラー
	ErrChallengeNotFound = errors.New("pending challenge not found")

	// ErrCacheEntryNotFound は認証済みクライアントキャッシュにエントリがない場合のエラー
	ErrCacheEntryNotFound = errors.New("auth cache entry not found")
)
