package radius

import (
	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
)

// AcceptParams はAccess-Accept生成に必要なパラメータ
type AcceptParams struct {
	// ReplyMessage はNASに表示するメッセージ（空なら設定しない）
	ReplyMessage string
	// Class は上流応答から引き継ぐClass属性（nilなら設定しない）
	Class []byte
	// ServiceType は上流応答から引き継ぐService-Type属性（0なら設定しない）
	ServiceType rfc2865.ServiceType
	// ProxyStates はリクエストから抽出されたProxy-State属性
	ProxyStates ProxyStates
}

// ChallengeParams はAccess-Challenge生成に必要なパラメータ
type ChallengeParams struct {
	// ReplyMessage はNASがユーザーに提示するプロンプト
	ReplyMessage string
	// State はチャレンジ相関用のStateトークン
	State []byte
	// ProxyStates はリクエストから抽出されたProxy-State属性
	ProxyStates ProxyStates
}

// RejectParams はAccess-Reject生成に必要なパラメータ
type RejectParams struct {
	// ReplyMessage はNASに返す任意のメッセージ（内部分類は含めない）
	ReplyMessage string
	// ProxyStates はリクエストから抽出されたProxy-State属性
	ProxyStates ProxyStates
}

// BuildAccessAccept はAccess-Acceptパケットを構築する。
func BuildAccessAccept(request *radius.Packet, secret []byte, params *AcceptParams) *radius.Packet {
	resp := request.Response(radius.CodeAccessAccept)

	if params.ReplyMessage != "" {
		_ = rfc2865.ReplyMessage_SetString(resp, params.ReplyMessage)
	}
	if len(params.Class) > 0 {
		_ = rfc2865.Class_Set(resp, params.Class)
	}
	if params.ServiceType != 0 {
		_ = rfc2865.ServiceType_Set(resp, params.ServiceType)
	}

	params.ProxyStates.Apply(resp)

	// リクエストがMessage-Authenticatorを含む場合のみ応答にも付与する
	if HasMessageAuthenticator(request) {
		SetMessageAuthenticator(resp, secret, request.Authenticator)
	}

	return resp
}

// BuildAccessChallenge はAccess-Challengeパケットを構築する。
// Stateトークンは次ラウンドのAccess-RequestでNASからエコーバックされる。
func BuildAccessChallenge(request *radius.Packet, secret []byte, params *ChallengeParams) *radius.Packet {
	resp := request.Response(radius.CodeAccessChallenge)

	if params.ReplyMessage != "" {
		_ = rfc2865.ReplyMessage_SetString(resp, params.ReplyMessage)
	}
	if len(params.State) > 0 {
		_ = rfc2865.State_Set(resp, params.State)
	}

	params.ProxyStates.Apply(resp)

	if HasMessageAuthenticator(request) {
		SetMessageAuthenticator(resp, secret, request.Authenticator)
	}

	return resp
}

// BuildAccessReject はAccess-Rejectパケットを構築する。
func BuildAccessReject(request *radius.Packet, secret []byte, params *RejectParams) *radius.Packet {
	resp := request.Response(radius.CodeAccessReject)

	if params.ReplyMessage != "" {
		_ = rfc2865.ReplyMessage_SetString(resp, params.ReplyMessage)
	}

	params.ProxyStates.Apply(resp)

	if HasMessageAuthenticator(request) {
		SetMessageAuthenticator(resp, secret, request.Authenticator)
	}

	return resp
}
