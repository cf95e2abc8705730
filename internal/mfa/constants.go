package mfa

// MFA APIエンドポイントパス
const (
	PathAccessRequests = "/access/requests"
	PathChallenge      = "/access/requests/challenge"
)

// HTTPヘッダ関連
const (
	HeaderContentType = "Content-Type"
	ContentTypeJSON   = "application/json"
)

// 第二要素判定ステータス
const (
	// StatusGranted は第二要素認証の成功を示す
	StatusGranted = "Granted"
	// StatusDenied は第二要素認証の拒否を示す
	StatusDenied = "Denied"
	// StatusAwaiting は追加入力（ワンタイムコード等）の待機を示す
	StatusAwaiting = "AwaitingAuthentication"
)
