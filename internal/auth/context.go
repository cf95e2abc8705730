package auth

import (
	"time"

	"layeh.com/radius"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/directory"
	internalradius "github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/radius"
)

// RequestContext は単一Access-Requestの処理を通じて受け渡される可変状態。
// パイプラインの各ステップが読み書きする。
type RequestContext struct {
	// TraceID はこのリクエストの追跡ID
	TraceID string
	// ReceivedAt は受信時刻
	ReceivedAt time.Time
	// RemoteAddr は送信元NASのエンドポイント
	RemoteAddr string

	// Client は送信元NASのクライアント設定
	Client *config.ClientConfig
	// Request は受信したRADIUSパケット
	Request *radius.Packet
	// Secret は共有シークレット
	Secret []byte

	// UserName は書き換えルール適用後のユーザー名
	UserName string
	// Profile はディレクトリから取得したプロファイル（取得しない構成ではnil）
	Profile *directory.Profile

	// State は二要素の判定状態
	State AuthenticationState

	// ResponseCode は確定した応答コード（0なら未確定）
	ResponseCode radius.Code
	// ReplyMessage は応答に含めるメッセージ
	ReplyMessage string
	// StateToken はAccess-Challenge応答に含めるStateトークン
	StateToken []byte

	// Passphrase は復号済みUser-Password（ワンタイムコードの場合もある）
	Passphrase string
	// MustChangePassword はパスワード変更フローへの誘導が必要
	MustChangePassword bool
	// PasswordDomain はパスワード変更対象のドメイン表示名
	PasswordDomain string

	// MFARequestID は進行中の第二要素リクエストID
	MFARequestID string

	// UpstreamResponse は上流RADIUSからの応答（RemoteRadius構成のみ）
	UpstreamResponse *radius.Packet

	// SuppressReply がtrueの場合、NASへの応答送信を抑止する
	SuppressReply bool
}

// Password は受信パケットからUser-Passwordを復号して返す。
// 初回呼び出し以降はPassphraseにキャッシュされる。
func (rc *RequestContext) Password() (string, error) {
	if rc.Passphrase != "" {
		return rc.Passphrase, nil
	}
	pw, err := internalradius.GetUserPassword(rc.Request)
	if err != nil {
		return "", err
	}
	rc.Passphrase = pw
	return pw, nil
}

// SetChallenge は応答をAccess-Challengeとして確定させる。
func (rc *RequestContext) SetChallenge(stateToken []byte, replyMessage string) {
	rc.ResponseCode = radius.CodeAccessChallenge
	rc.StateToken = stateToken
	rc.ReplyMessage = replyMessage
}

// SetReject は応答をAccess-Rejectとして確定させる。
func (rc *RequestContext) SetReject(replyMessage string) {
	rc.ResponseCode = radius.CodeAccessReject
	rc.ReplyMessage = replyMessage
}

// Decided は応答コードが確定済みかを返す。
func (rc *RequestContext) Decided() bool {
	return rc.ResponseCode != 0
}
