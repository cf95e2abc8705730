package radius

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"

	"layeh.com/radius"
)

// maxTag はタグ付き属性の有効タグ上限（RFC 2868）。
// 先頭バイトが0x20以上の場合はタグなしとみなし、値の一部として扱う。
const maxTag = 0x1F

// Value は辞書に基づいて型変換された属性値。
type Value struct {
	Name string
	Kind Kind

	// タグ付き属性のタグ（Tagged=trueのときのみ有効）
	Tag    byte
	Tagged bool

	Text    string
	Integer uint32
	IP      net.IP
	Raw     []byte
}

// Decode は属性の生バイト列を辞書定義に従って型変換する。
func (d Dictionary) Decode(t radius.Type, raw radius.Attribute) (Value, error) {
	def, err := d.Lookup(t)
	if err != nil {
		return Value{}, err
	}

	v := Value{Name: def.Name, Kind: def.Kind, Raw: raw}
	data := []byte(raw)

	if def.Kind.tagged() && len(data) > 0 && data[0] <= maxTag {
		v.Tag = data[0]
		v.Tagged = true
		data = data[1:]
	}

	switch def.Kind {
	case KindString, KindTaggedString:
		v.Text = string(data)

	case KindInteger, KindTaggedInteger:
		if len(data) != 4 {
			return Value{}, fmt.Errorf("%w: %s: integer must be 4 bytes, got %d",
				ErrMalformedAttribute, def.Name, len(data))
		}
		v.Integer = binary.BigEndian.Uint32(data)

	case KindIPAddr:
		ip, err := decodeIPAddr(data)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %s: %v", ErrMalformedAttribute, def.Name, err)
		}
		v.IP = ip

	case KindOctets:
		// 生バイト列のまま
	}

	return v, nil
}

// DecodeAll はパケットの全属性を受信順に型変換する。
// 辞書に存在しない属性タイプはUnknownAttributeErrorで失敗する。
func (d Dictionary) DecodeAll(p *radius.Packet) ([]Value, error) {
	values := make([]Value, 0, len(p.Attributes))
	for _, avp := range p.Attributes {
		v, err := d.Decode(avp.Type, avp.Attribute)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// decodeIPAddr はip-address型の値をデコードする。
// 4バイトのネットワークオーダーを第一候補とし、失敗した場合は
// Microsoft方式の「符号付きFramed IP」（10進文字列で送られる
// 2の補数32ビット値）として再解釈する。
func decodeIPAddr(data []byte) (net.IP, error) {
	if len(data) == 4 {
		return net.IPv4(data[0], data[1], data[2], data[3]), nil
	}

	s := strings.TrimSpace(string(data))
	if ip := net.ParseIP(s); ip != nil {
		return ip, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n >= -1<<31 && n <= 1<<31-1 {
			return FramedIPFromSigned(int32(n)), nil
		}
	}
	return nil, fmt.Errorf("cannot parse %d bytes as ip-address", len(data))
}

// FramedIPFromSigned はMicrosoft方式の符号付き32ビット値をIPv4アドレスに変換する。
// 値はリトルエンディアンホストで生成された2の補数表現で、バイト順が反転している。
func FramedIPFromSigned(v int32) net.IP {
	u := uint32(v)
	return net.IPv4(byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
}
