package store

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// newTestStore はminiredisに接続したValkeyClientを生成する
func newTestStore(t *testing.T) (*miniredis.Miniredis, *ValkeyClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	vc := NewValkeyClientFromRedis(client)
	t.Cleanup(func() { _ = vc.Close() })
	return mr, vc
}
