package store

// Valkeyキープレフィックス
const (
	KeyPrefixClient    = "client:"    // NASクライアント設定
	KeyPrefixChallenge = "challenge:" // チャレンジ保留コンテキスト
	KeyPrefixRetrans   = "retrans:"   // 再送検出キー
	KeyPrefixAuthCache = "authcache:" // 認証済みクライアントキャッシュ
)
