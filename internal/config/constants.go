package config

import "time"

// Valkey接続設定
const (
	ValkeyConnectTimeout = 3 * time.Second
	ValkeyCommandTimeout = 2 * time.Second
	ValkeyPoolSize       = 10
	ValkeyMinIdleConns   = 2
)

// Multifactor API接続設定
const (
	MFAConnectTimeout = 2 * time.Second
	MFARequestTimeout = 30 * time.Second
)

// Circuit Breaker設定
const (
	CBName             = "mfa-api"
	CBMaxRequests      = 3
	CBInterval         = 10 * time.Second
	CBTimeout          = 30 * time.Second
	CBFailureThreshold = 5
)

// 状態管理TTL
const (
	// ChallengeContextTTL はチャレンジ保留コンテキストの有効期間。
	// セカンドファクター・パスワード変更の両方で共通。
	ChallengeContextTTL = 5 * time.Minute

	// RetransmissionTTL は再送検出キーの有効期間。
	RetransmissionTTL = 60 * time.Second
)

// 上流RADIUSプロキシ設定
const (
	ProxyTimeout = 5 * time.Second
)

// LDAP接続設定
const (
	LDAPConnectTimeout = 5 * time.Second
	LDAPSearchTimeout  = 10
	LDAPSizeLimit      = 1
)

// サーバーシャットダウン設定
const (
	ShutdownTimeout = 5 * time.Second
)
