package challenge

import "testing"

func TestIdentifierKey(t *testing.T) {
	id1 := NewIdentifier("vpn-gw", []byte("token"))
	id2 := NewIdentifier("vpn-gw", []byte("token"))
	if id1.Key() != id2.Key() {
		t.Error("same identifier produced different keys")
	}
}

func TestIdentifierKeyClientScoped(t *testing.T) {
	// 同一トークンでもクライアントが違えば別キー
	a := NewIdentifier("gw-a", []byte("token")).Key()
	b := NewIdentifier("gw-b", []byte("token")).Key()
	if a == b {
		t.Error("different clients produced same key")
	}
}

func TestIdentifierKeyBinaryToken(t *testing.T) {
	// 生バイトのトークンでもキーは安全な文字列になる
	id := NewIdentifier("gw", []byte{0x00, 0xFF, 0x10, 0x7F})
	key := id.Key()
	if key == "" {
		t.Fatal("empty key")
	}
	for _, r := range key {
		if r < 0x20 || r > 0x7E {
			t.Errorf("key contains non-printable rune %q", r)
		}
	}
}
