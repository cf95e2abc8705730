package mfa

// AccessRequest は第二要素判定リクエスト。
// MFA APIのmodelラッパーに包んで送信される。
type AccessRequest struct {
	Identity         string `json:"identity"`
	Name             string `json:"name,omitempty"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	PassCode         string `json:"passCode,omitempty"`
	CallingStationID string `json:"callingStationId,omitempty"`
	CalledStationID  string `json:"calledStationId,omitempty"`
	NASIdentifier    string `json:"nasIdentifier,omitempty"`
	Authenticator    string `json:"authenticator,omitempty"`
	GroupList        string `json:"groupList,omitempty"`
}

// ChallengeRequest は進行中の第二要素リクエストへの応答入力
type ChallengeRequest struct {
	Identity  string `json:"identity"`
	Challenge string `json:"challenge"`
	RequestID string `json:"requestId"`
}

// AccessResponse はMFA APIの第二要素判定結果
type AccessResponse struct {
	// Status はGranted / Denied / AwaitingAuthenticationのいずれか
	Status string `json:"status"`
	// RequestID はAwaitingAuthentication時に後続Challenge呼び出しで使用するID
	RequestID string `json:"id"`
	// ReplyMessage はNASがユーザーに提示するプロンプト文言
	ReplyMessage string `json:"replyMessage"`
	// Phone は認証に使用された電話番号（マスク済み）
	Phone string `json:"phone"`
}

// IsGranted は第二要素が許可されたかを返す。
func (r *AccessResponse) IsGranted() bool {
	return r.Status == StatusGranted
}

// IsAwaiting は追加入力待ちかどうかを返す。
func (r *AccessResponse) IsAwaiting() bool {
	return r.Status == StatusAwaiting
}

// requestEnvelope はMFA APIのリクエストボディ形式
type requestEnvelope struct {
	Model any `json:"model"`
}

// responseEnvelope はMFA APIのレスポンスボディ形式
type responseEnvelope struct {
	Model   *AccessResponse `json:"model"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
}
