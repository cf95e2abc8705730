package challenge

import (
	"testing"

	"layeh.com/radius"
	"layeh.com/radius/vendors/microsoft"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/auth"
	internalradius "github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/radius"
)

func TestExtractAnswerMSCHAPv2(t *testing.T) {
	p := radius.New(radius.CodeAccessRequest, []byte("s"))
	// 応答フィールドの先頭6バイトがワンタイムコード
	// MS-CHAP2-Responseは固定50バイト（Ident+Flags+Peer-Challenge+Reserved+NT-Response）
	resp := make([]byte, 50)
	copy(resp, []byte{0x01, 0x02, '1', '2', '3', '4', '5', '6'})
	if err := microsoft.MSCHAP2Response_Set(p, resp); err != nil {
		t.Fatal(err)
	}

	rc := &auth.RequestContext{Request: p, Secret: p.Secret}
	answer, err := extractAnswer(rc)
	if err != nil {
		t.Fatalf("extractAnswer failed: %v", err)
	}
	if answer != "123456" {
		t.Errorf("answer = %q, want 123456", answer)
	}
}

func TestExtractAnswerPAP(t *testing.T) {
	p := radius.New(radius.CodeAccessRequest, []byte("s"))
	if err := internalradius.SetUserPassword(p, "654321"); err != nil {
		t.Fatal(err)
	}

	rc := &auth.RequestContext{Request: p, Secret: p.Secret}
	answer, err := extractAnswer(rc)
	if err != nil {
		t.Fatal(err)
	}
	if answer != "654321" {
		t.Errorf("answer = %q, want 654321", answer)
	}
}

func TestExtractAnswerMissing(t *testing.T) {
	p := radius.New(radius.CodeAccessRequest, []byte("s"))
	rc := &auth.RequestContext{Request: p, Secret: p.Secret}
	if _, err := extractAnswer(rc); err == nil {
		t.Error("extractAnswer succeeded without any credential attribute")
	}
}
