package radius

import (
	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
)

// ProxyStates は応答へエコーバックするProxy-State属性値の列。
// RFC 2865 5.33により、応答には受信したProxy-Stateを受信順のまま含める。
type ProxyStates [][]byte

// ExtractProxyStates は受信パケットの全Proxy-State属性を受信順で取り出す。
func ExtractProxyStates(p *radius.Packet) ProxyStates {
	values, _ := rfc2865.ProxyState_Gets(p)
	return ProxyStates(values)
}

// Apply は保持している値を同じ順序で応答パケットへ追加する。
func (ps ProxyStates) Apply(p *radius.Packet) {
	for _, v := range ps {
		_ = rfc2865.ProxyState_Add(p, v)
	}
}
