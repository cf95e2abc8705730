// Package radius はlayeh.com/radiusの上にRADIUSアダプターが必要とする
// 属性操作・認証子計算・パスワード難読化のヘルパーを提供する。
package radius

import (
	"encoding/base64"
	"fmt"

	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
)

// Parse はUDPペイロードをRADIUSパケットにデコードする。
// ワイヤ形式の不正はErrMalformedPacketにラップされる。
func Parse(data, secret []byte) (*radius.Packet, error) {
	p, err := radius.Parse(data, secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPacket, err)
	}
	return p, nil
}

// GetUserName はUser-Name属性を取得する。
// 属性が存在しない場合は("", false)を返す。
func GetUserName(p *radius.Packet) (string, bool) {
	val := rfc2865.UserName_GetString(p)
	if val == "" {
		return "", false
	}
	return val, true
}

// GetState はState属性を取得する。
// 属性が存在しない場合は(nil, false)を返す。
func GetState(p *radius.Packet) ([]byte, bool) {
	state := rfc2865.State_Get(p)
	if state == nil {
		return nil, false
	}
	return state, true
}

// GetCallingStationID はCalling-Station-Id属性を取得する。
// 属性が存在しない場合は("", false)を返す。
func GetCallingStationID(p *radius.Packet) (string, bool) {
	val := rfc2865.CallingStationID_GetString(p)
	if val == "" {
		return "", false
	}
	return val, true
}

// GetCalledStationID はCalled-Station-Id属性を取得する。
// 属性が存在しない場合は("", false)を返す。
func GetCalledStationID(p *radius.Packet) (string, bool) {
	val := rfc2865.CalledStationID_GetString(p)
	if val == "" {
		return "", false
	}
	return val, true
}

// GetNASIdentifier はNAS-Identifier属性を取得する。
// 属性が存在しない場合は("", false)を返す。
func GetNASIdentifier(p *radius.Packet) (string, bool) {
	val := rfc2865.NASIdentifier_GetString(p)
	if val == "" {
		return "", false
	}
	return val, true
}

// GetUserPassword はUser-Password属性を復号して返す。
func GetUserPassword(p *radius.Packet) (string, error) {
	raw := p.Attributes.Get(rfc2865.UserPassword_Type)
	if raw == nil {
		return "", ErrMissingUserPassword
	}
	return DecryptUserPassword(raw, p.Secret, p.Authenticator)
}

// SetUserPassword はUser-Password属性を難読化して設定する。
// 難読化にはパケットのSecretとAuthenticatorを使用する。
func SetUserPassword(p *radius.Packet, password string) error {
	enc, err := EncryptUserPassword([]byte(password), p.Secret, p.Authenticator)
	if err != nil {
		return err
	}
	p.Attributes.Set(rfc2865.UserPassword_Type, enc)
	return nil
}

// CreateUniqueKey は再送検出用のキーを生成する。
// コード・識別子・送信元エンドポイント・ユーザー名・Authenticatorの
// 組が一致するデータグラムは同一論理リクエストの再送とみなされる。
func CreateUniqueKey(p *radius.Packet, remoteAddr string) string {
	userName, _ := GetUserName(p)
	return fmt.Sprintf("%d:%d:%s:%s:%s",
		int(p.Code),
		p.Identifier,
		remoteAddr,
		userName,
		base64.StdEncoding.EncodeToString(p.Authenticator[:]),
	)
}
