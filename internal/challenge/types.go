// Package challenge はAccess-Challengeラウンドをまたぐ多段認証フロー
// （第二要素入力・パスワード変更）の状態遷移を提供する。
package challenge

// Kind は保留チャレンジの種別
type Kind string

const (
	// KindSecondFactor はワンタイムコード等の第二要素入力待ち
	KindSecondFactor Kind = "second_factor"
	// KindPasswordChange はパスワード変更フロー進行中
	KindPasswordChange Kind = "password_change"
)

// パスワード変更フローの段階
const (
	// StageAwaitCurrent は現行パスワード入力待ち
	StageAwaitCurrent int64 = 1
	// StageAwaitNew は新パスワード入力待ち
	StageAwaitNew int64 = 2
	// StageAwaitRepeat は新パスワード再入力待ち
	StageAwaitRepeat int64 = 3
)

// ユーザーに提示するプロンプト文言
const (
	PromptCurrentPassword = "Password expired. Enter current password"
	PromptNewPassword     = "Enter new password"
	PromptRepeatPassword  = "Repeat new password"
	PromptPasswordChanged = "Password changed"
	MessageMismatch       = "Passwords do not match"
)
