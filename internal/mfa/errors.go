package mfa

import (
	"errors"
	"fmt"
)

// センチネルエラー
var (
	// ErrUnreachable はMFA APIに到達できない場合のエラー。
	// 接続失敗・タイムアウト・5xx応答・Circuit Breaker Open状態を包含する。
	// この区別はバイパスポリシー判定に使用される。
	ErrUnreachable = errors.New("mfa api unreachable")

	// ErrInvalidResponse はMFA APIからのレスポンスが不正な場合のエラー
	ErrInvalidResponse = errors.New("invalid response from mfa api")
)

// APIError はMFA APIからのHTTPエラー応答を表す
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mfa api error: %d %s", e.StatusCode, e.Message)
}

// IsServerError はサーバーエラーかどうかを判定する
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// ConnectionError は接続エラーを表す
type ConnectionError struct {
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Cause)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}
