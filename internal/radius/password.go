package radius

import (
	"crypto/md5"

	"layeh.com/radius"
)

// passwordBlockSize はUser-Password難読化のブロック長（RFC 2865 5.2）
const passwordBlockSize = 16

// maxPasswordLen はRFC 2865が定めるUser-Passwordの最大長
const maxPasswordLen = 128

// EncryptUserPassword はUser-Password属性値を難読化する（RFC 2865 5.2）。
// 平文を16バイト境界までNULパディングし、各ブロックを
// MD5(secret + salt)とXORする。saltは先頭ブロックではRequest
// Authenticator、以降は直前の暗号文ブロック。
func EncryptUserPassword(password, secret []byte, authenticator [16]byte) (radius.Attribute, error) {
	if len(password) == 0 {
		return nil, ErrInvalidPasswordLength
	}
	if len(password) > maxPasswordLen {
		return nil, ErrPasswordTooLong
	}

	padded := (len(password) + passwordBlockSize - 1) / passwordBlockSize * passwordBlockSize
	buf := make([]byte, padded)
	copy(buf, password)

	salt := authenticator[:]
	for i := 0; i < padded; i += passwordBlockSize {
		h := md5.New()
		h.Write(secret)
		h.Write(salt)
		digest := h.Sum(nil)
		for j := 0; j < passwordBlockSize; j++ {
			buf[i+j] ^= digest[j]
		}
		salt = buf[i : i+passwordBlockSize]
	}
	return radius.Attribute(buf), nil
}

// DecryptUserPassword は難読化されたUser-Password属性値を復号する。
// 暗号文は16バイトの倍数でなければならない。末尾のNULパディングは除去される。
func DecryptUserPassword(enc radius.Attribute, secret []byte, authenticator [16]byte) (string, error) {
	data := []byte(enc)
	if len(data) == 0 || len(data)%passwordBlockSize != 0 {
		return "", ErrInvalidPasswordLength
	}

	plain := make([]byte, len(data))
	salt := authenticator[:]
	for i := 0; i < len(data); i += passwordBlockSize {
		h := md5.New()
		h.Write(secret)
		h.Write(salt)
		digest := h.Sum(nil)
		for j := 0; j < passwordBlockSize; j++ {
			plain[i+j] = data[i+j] ^ digest[j]
		}
		salt = data[i : i+passwordBlockSize]
	}

	// NULパディング除去
	end := len(plain)
	for end > 0 && plain[end-1] == 0 {
		end--
	}
	return string(plain[:end]), nil
}
