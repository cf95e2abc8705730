// Package auth はリクエスト処理パイプラインで共有される
// 認証状態とリクエストコンテキストを提供する。
package auth

// Status は各認証要素の判定状態
type Status int

const (
	// StatusUnknown は未判定
	StatusUnknown Status = iota
	// StatusAccept は当該要素の認証成功
	StatusAccept
	// StatusReject は当該要素の認証失敗
	StatusReject
	// StatusBypass は当該要素の検証を省略して通過
	StatusBypass
)

// String はStatusの文字列表現を返す
func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusAccept:
		return "accept"
	case StatusReject:
		return "reject"
	case StatusBypass:
		return "bypass"
	default:
		return "invalid"
	}
}

// Passed は要素が通過済み（成功またはバイパス）かを返す。
func (s Status) Passed() bool {
	return s == StatusAccept || s == StatusBypass
}

// ParseStatus は文字列表現をStatusに変換する。未知の値はStatusUnknown。
func ParseStatus(s string) Status {
	switch s {
	case "accept":
		return StatusAccept
	case "reject":
		return StatusReject
	case "bypass":
		return StatusBypass
	default:
		return StatusUnknown
	}
}

// AuthenticationState は二要素それぞれの判定状態を保持する
type AuthenticationState struct {
	FirstFactor  Status
	SecondFactor Status
}

// Decided は最終判定が確定したかを返す。
// どちらかがRejectなら確定、両方が通過済みなら確定。
func (s *AuthenticationState) Decided() bool {
	if s.FirstFactor == StatusReject || s.SecondFactor == StatusReject {
		return true
	}
	return s.FirstFactor.Passed() && s.SecondFactor.Passed()
}

// Accepted は両要素が通過済みかを返す。
func (s *AuthenticationState) Accepted() bool {
	return s.FirstFactor.Passed() && s.SecondFactor.Passed()
}
