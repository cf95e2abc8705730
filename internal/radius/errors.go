package radius

import (
	"errors"
	"fmt"

	"layeh.com/radius"
)

var (
	// ErrMalformedPacket はRADIUSパケットのワイヤ形式が不正な場合のエラー
	ErrMalformedPacket = errors.New("malformed radius packet")

	// ErrMalformedAttribute は属性値の長さ・形式が宣言された型と矛盾する場合のエラー
	ErrMalformedAttribute = errors.New("malformed attribute value")

	// ErrInvalidPasswordLength はUser-Password暗号文が16バイトの倍数でない場合のエラー
	ErrInvalidPasswordLength = errors.New("user-password length must be a non-zero multiple of 16")

	// ErrPasswordTooLong はパスワードがRFC 2865の上限128バイトを超える場合のエラー
	ErrPasswordTooLong = errors.New("password exceeds 128 bytes")

	// ErrMissingUserPassword はUser-Password属性が存在しない場合のエラー
	ErrMissingUserPassword = errors.New("user-password attribute not found")
)

// UnknownAttributeError は属性辞書に存在しない属性タイプを表す。
type UnknownAttributeError struct {
	Type radius.Type
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("unknown attribute type %d", int(e.Type))
}
