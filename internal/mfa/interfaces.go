package mfa

import "context"

//go:generate mockgen -source=interfaces.go -destination=../mocks/mock_mfa.go -package=mocks

// Client はMFA APIクライアントのインターフェース
type Client interface {
	// CreateSecondFactorRequest は第二要素判定リクエストを送信する。
	// APIに到達できない場合はErrUnreachableを返す。
	CreateSecondFactorRequest(ctx context.Context, req *AccessRequest) (*AccessResponse, error)

	// Challenge は進行中の第二要素リクエストへの応答入力を送信する。
	Challenge(ctx context.Context, req *ChallengeRequest) (*AccessResponse, error)
}
