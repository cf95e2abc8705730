package challenge

import "encoding/base64"

// Identifier は保留チャレンジを一意に識別する。
// Stateトークン単独ではなくクライアント名との組で相関させ、
// 別クライアントからのトークン持ち込みを弾く。
type Identifier struct {
	ClientName string
	StateToken []byte
}

// NewIdentifier は新しいIdentifierを生成する。
func NewIdentifier(clientName string, stateToken []byte) Identifier {
	return Identifier{ClientName: clientName, StateToken: stateToken}
}

// Key はストアで使用する文字列キーを返す。
func (id Identifier) Key() string {
	return id.ClientName + ":" + base64.RawURLEncoding.EncodeToString(id.StateToken)
}
