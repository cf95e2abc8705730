package radius

import (
	"layeh.com/radius"
)

// Kind は属性辞書上の値の型区分を表す。
type Kind int

const (
	KindString Kind = iota
	KindTaggedString
	KindInteger
	KindTaggedInteger
	KindIPAddr
	KindOctets
)

// String はKindの文字列表現を返す
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindTaggedString:
		return "tagged-string"
	case KindInteger:
		return "integer"
	case KindTaggedInteger:
		return "tagged-integer"
	case KindIPAddr:
		return "ip-address"
	case KindOctets:
		return "octet"
	default:
		return "unknown"
	}
}

// tagged はタグ付き型区分かどうかを返す
func (k Kind) tagged() bool {
	return k == KindTaggedString || k == KindTaggedInteger
}

// AttributeDef は属性辞書の1エントリ。
type AttributeDef struct {
	Name string
	Kind Kind
}

// Dictionary は数値属性タイプから名前・型区分への対応表。
type Dictionary map[radius.Type]AttributeDef

// Lookup は属性タイプの定義を返す。
// 辞書に存在しない場合はUnknownAttributeErrorを返す。
func (d Dictionary) Lookup(t radius.Type) (AttributeDef, error) {
	def, ok := d[t]
	if !ok {
		return AttributeDef{}, &UnknownAttributeError{Type: t}
	}
	return def, nil
}

// TypeOf は属性名から数値タイプを逆引きする。
// 見つからない場合は(0, false)を返す。
func (d Dictionary) TypeOf(name string) (radius.Type, bool) {
	for t, def := range d {
		if def.Name == name {
			return t, true
		}
	}
	return 0, false
}

// DefaultDictionary はRFC 2865/2868/2869の主要属性を含む組み込み辞書を返す。
func DefaultDictionary() Dictionary {
	return Dictionary{
		1:  {Name: "User-Name", Kind: KindString},
		2:  {Name: "User-Password", Kind: KindOctets},
		3:  {Name: "CHAP-Password", Kind: KindOctets},
		4:  {Name: "NAS-IP-Address", Kind: KindIPAddr},
		5:  {Name: "NAS-Port", Kind: KindInteger},
		6:  {Name: "Service-Type", Kind: KindInteger},
		7:  {Name: "Framed-Protocol", Kind: KindInteger},
		8:  {Name: "Framed-IP-Address", Kind: KindIPAddr},
		9:  {Name: "Framed-IP-Netmask", Kind: KindIPAddr},
		11: {Name: "Filter-Id", Kind: KindString},
		12: {Name: "Framed-MTU", Kind: KindInteger},
		18: {Name: "Reply-Message", Kind: KindString},
		24: {Name: "State", Kind: KindOctets},
		25: {Name: "Class", Kind: KindOctets},
		26: {Name: "Vendor-Specific", Kind: KindOctets},
		27: {Name: "Session-Timeout", Kind: KindInteger},
		28: {Name: "Idle-Timeout", Kind: KindInteger},
		30: {Name: "Called-Station-Id", Kind: KindString},
		31: {Name: "Calling-Station-Id", Kind: KindString},
		32: {Name: "NAS-Identifier", Kind: KindString},
		33: {Name: "Proxy-State", Kind: KindOctets},
		40: {Name: "Acct-Status-Type", Kind: KindInteger},
		44: {Name: "Acct-Session-Id", Kind: KindString},
		61: {Name: "NAS-Port-Type", Kind: KindInteger},
		64: {Name: "Tunnel-Type", Kind: KindTaggedInteger},
		65: {Name: "Tunnel-Medium-Type", Kind: KindTaggedInteger},
		69: {Name: "Tunnel-Password", Kind: KindTaggedString},
		79: {Name: "EAP-Message", Kind: KindOctets},
		80: {Name: "Message-Authenticator", Kind: KindOctets},
		81: {Name: "Tunnel-Private-Group-ID", Kind: KindTaggedString},
		87: {Name: "NAS-Port-Id", Kind: KindString},
	}
}
