package radius

import (
	"crypto/hmac"
	"crypto/md5"

	"layeh.com/radius"
	"layeh.com/radius/rfc2869"
)

// VerifyResponseAuthenticator は応答パケットのAuthenticatorを検証する（RFC 2865 3）。
// wireは受信したワイヤ形式、requestAuthは対応するリクエストのAuthenticator。
// MD5(code + identifier + length + requestAuth + attributes + secret) と
// 受信値を比較する。
func VerifyResponseAuthenticator(wire []byte, requestAuth [16]byte, secret []byte) bool {
	if len(wire) < 20 {
		return false
	}
	h := md5.New()
	h.Write(wire[:4])
	h.Write(requestAuth[:])
	h.Write(wire[20:])
	h.Write(secret)
	return hmac.Equal(h.Sum(nil), wire[4:20])
}

// HasMessageAuthenticator はMessage-Authenticator属性の有無を返す。
func HasMessageAuthenticator(p *radius.Packet) bool {
	ma, err := rfc2869.MessageAuthenticator_Lookup(p)
	return err == nil && len(ma) == 16
}

// VerifyMessageAuthenticator はMessage-Authenticator属性を検証する（RFC 3579）。
// Request Authenticatorを使用してHMAC-MD5を計算し、
// パケット内のMessage-Authenticator値と比較する。
func VerifyMessageAuthenticator(packet *radius.Packet, secret []byte) bool {
	origMA, err := rfc2869.MessageAuthenticator_Lookup(packet)
	if err != nil {
		return false
	}
	if len(origMA) != 16 {
		return false
	}

	// 属性値を16バイトゼロに置換してバイト列化
	zeroMA := make([]byte, 16)
	_ = rfc2869.MessageAuthenticator_Set(packet, zeroMA)

	data, err := packet.MarshalBinary()
	if err != nil {
		_ = rfc2869.MessageAuthenticator_Set(packet, origMA)
		return false
	}

	mac := hmac.New(md5.New, secret)
	mac.Write(data)
	expected := mac.Sum(nil)

	// 元の値を復元
	_ = rfc2869.MessageAuthenticator_Set(packet, origMA)

	return hmac.Equal(expected, origMA)
}

// SetMessageAuthenticator は応答パケットにMessage-Authenticator属性を生成・追加する。
// requestAuth はリクエストのAuthenticator（RFC 3579に基づき、Response計算時に使用）。
func SetMessageAuthenticator(packet *radius.Packet, secret []byte, requestAuth [16]byte) {
	zeroMA := make([]byte, 16)
	_ = rfc2869.MessageAuthenticator_Set(packet, zeroMA)

	savedAuth := packet.Authenticator
	packet.Authenticator = requestAuth

	data, err := packet.MarshalBinary()
	if err != nil {
		packet.Authenticator = savedAuth
		return
	}

	mac := hmac.New(md5.New, secret)
	mac.Write(data)
	computed := mac.Sum(nil)

	packet.Authenticator = savedAuth

	_ = rfc2869.MessageAuthenticator_Set(packet, computed)
}
