package guard

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"layeh.com/radius"
	"layeh.com/radius/rfc2865"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/store"
)

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	vc := store.NewValkeyClientFromRedis(client)
	t.Cleanup(func() { _ = vc.Close() })
	return NewDetector(store.NewRetransmissionStore(vc))
}

func TestDetectorFirstDatagramProcessed(t *testing.T) {
	d := newTestDetector(t)
	p := radius.New(radius.CodeAccessRequest, []byte("s"))
	_ = rfc2865.UserName_SetString(p, "alice")

	if !d.ShouldProcess(context.Background(), p, "10.0.0.1:49152") {
		t.Error("first datagram was not processed")
	}
}

func TestDetectorRetransmissionDropped(t *testing.T) {
	d := newTestDetector(t)
	p := radius.New(radius.CodeAccessRequest, []byte("s"))
	_ = rfc2865.UserName_SetString(p, "alice")
	ctx := context.Background()

	if !d.ShouldProcess(ctx, p, "10.0.0.1:49152") {
		t.Fatal("first datagram was not processed")
	}
	// 同一論理リクエストの再送は破棄される
	if d.ShouldProcess(ctx, p, "10.0.0.1:49152") {
		t.Error("retransmitted datagram was processed")
	}
}

func TestDetectorDistinctRequestsProcessed(t *testing.T) {
	d := newTestDetector(t)
	ctx := context.Background()

	p1 := radius.New(radius.CodeAccessRequest, []byte("s"))
	_ = rfc2865.UserName_SetString(p1, "alice")
	p2 := radius.New(radius.CodeAccessRequest, []byte("s"))
	_ = rfc2865.UserName_SetString(p2, "alice")

	if !d.ShouldProcess(ctx, p1, "10.0.0.1:49152") {
		t.Error("p1 was not processed")
	}
	// Authenticatorが異なる新規リクエストは処理される
	if !d.ShouldProcess(ctx, p2, "10.0.0.1:49152") {
		t.Error("p2 with fresh authenticator was not processed")
	}
}
