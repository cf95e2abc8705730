package radius

import (
	"errors"
	"net"
	"testing"

	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
)

func TestDictionaryLookupUnknown(t *testing.T) {
	d := DefaultDictionary()
	_, err := d.Lookup(200)

	var unknownErr *UnknownAttributeError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("err = %v, want UnknownAttributeError", err)
	}
	if unknownErr.Type != 200 {
		t.Errorf("Type = %d, want 200", unknownErr.Type)
	}
}

func TestDictionaryTypeOf(t *testing.T) {
	d := DefaultDictionary()

	typ, ok := d.TypeOf("User-Name")
	if !ok || typ != 1 {
		t.Errorf("TypeOf(User-Name) = (%d, %v), want (1, true)", typ, ok)
	}
	if _, ok := d.TypeOf("No-Such-Attribute"); ok {
		t.Error("TypeOf returned true for unknown name")
	}
}

func TestDecodeString(t *testing.T) {
	d := DefaultDictionary()
	v, err := d.Decode(1, radius.Attribute("alice"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if v.Name != "User-Name" || v.Text != "alice" || v.Tagged {
		t.Errorf("Decode = %+v", v)
	}
}

func TestDecodeInteger(t *testing.T) {
	d := DefaultDictionary()
	v, err := d.Decode(5, radius.Attribute{0x00, 0x00, 0x00, 0x2A})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if v.Integer != 42 {
		t.Errorf("Integer = %d, want 42", v.Integer)
	}
}

func TestDecodeIntegerMalformed(t *testing.T) {
	d := DefaultDictionary()
	_, err := d.Decode(5, radius.Attribute{0x01, 0x02})
	if !errors.Is(err, ErrMalformedAttribute) {
		t.Errorf("err = %v, want ErrMalformedAttribute", err)
	}
}

func TestDecodeTaggedString(t *testing.T) {
	d := DefaultDictionary()

	// タグ0x01付きのTunnel-Private-Group-ID
	v, err := d.Decode(81, radius.Attribute{0x01, 'v', 'l', 'a', 'n', '1', '0'})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !v.Tagged || v.Tag != 0x01 {
		t.Errorf("Tagged = %v, Tag = %d, want true, 1", v.Tagged, v.Tag)
	}
	if v.Text != "vlan10" {
		t.Errorf("Text = %q, want vlan10", v.Text)
	}
}

func TestDecodeTaggedStringNoTag(t *testing.T) {
	d := DefaultDictionary()

	// 先頭バイトが0x20以上ならタグなし、値の一部として扱う
	v, err := d.Decode(81, radius.Attribute("group-a"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if v.Tagged {
		t.Error("Tagged = true for untagged value")
	}
	if v.Text != "group-a" {
		t.Errorf("Text = %q, want group-a", v.Text)
	}
}

func TestDecodeTaggedInteger(t *testing.T) {
	d := DefaultDictionary()

	// Tunnel-Type: タグ0x02、値13（VLAN）
	v, err := d.Decode(64, radius.Attribute{0x02, 0x00, 0x00, 0x0D})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !v.Tagged || v.Tag != 0x02 {
		t.Errorf("Tagged = %v, Tag = %d", v.Tagged, v.Tag)
	}
	if v.Integer != 13 {
		t.Errorf("Integer = %d, want 13", v.Integer)
	}
}

func TestDecodeIPAddr(t *testing.T) {
	d := DefaultDictionary()
	v, err := d.Decode(8, radius.Attribute{192, 168, 10, 20})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !v.IP.Equal(net.IPv4(192, 168, 10, 20)) {
		t.Errorf("IP = %v, want 192.168.10.20", v.IP)
	}
}

func TestDecodeIPAddrSignedFallback(t *testing.T) {
	d := DefaultDictionary()

	// Microsoft方式: 10進文字列の符号付き32ビット値（バイト順反転）
	v, err := d.Decode(8, radius.Attribute("-1062716620"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if v.IP == nil {
		t.Fatal("IP is nil")
	}
	// -1062716620 = 0xC0A80A34（リトルエンディアン解釈で52.10.168.192）
	want := FramedIPFromSigned(-1062716620)
	if !v.IP.Equal(want) {
		t.Errorf("IP = %v, want %v", v.IP, want)
	}
}

func TestFramedIPFromSigned(t *testing.T) {
	// 0x0100007F → 127.0.0.1（リトルエンディアン格納）
	ip := FramedIPFromSigned(0x0100007F)
	if !ip.Equal(net.IPv4(127, 0, 0, 1)) {
		t.Errorf("FramedIPFromSigned = %v, want 127.0.0.1", ip)
	}
}

func TestDecodeAllPreservesOrder(t *testing.T) {
	d := DefaultDictionary()
	p := radius.New(radius.CodeAccessRequest, []byte("s"))
	_ = rfc2865.UserName_SetString(p, "dave")
	_ = rfc2865.CallingStationID_SetString(p, "AA-BB")
	_ = rfc2865.NASIdentifier_SetString(p, "nas01")

	values, err := d.DecodeAll(p)
	if err != nil {
		t.Fatalf("DecodeAll failed: %v", err)
	}
	if len(values) != 3 {
		t.Fatalf("len(values) = %d, want 3", len(values))
	}

	wantNames := []string{"User-Name", "Calling-Station-Id", "NAS-Identifier"}
	for i, want := range wantNames {
		if values[i].Name != want {
			t.Errorf("values[%d].Name = %q, want %q", i, values[i].Name, want)
		}
	}
}

func TestDecodeAllUnknownAttribute(t *testing.T) {
	d := DefaultDictionary()
	p := radius.New(radius.CodeAccessRequest, []byte("s"))
	p.Attributes.Add(250, radius.Attribute{0x01})

	_, err := d.DecodeAll(p)
	var unknownErr *UnknownAttributeError
	if !errors.As(err, &unknownErr) {
		t.Errorf("err = %v, want UnknownAttributeError", err)
	}
}
