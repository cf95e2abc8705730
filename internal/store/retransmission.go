package store

import (
	"context"
	"fmt"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"
)

// retransmissionStore はRetransmissionStoreの実装。
type retransmissionStore struct {
	vc *ValkeyClient
}

// NewRetransmissionStore は新しいRetransmissionStoreを生成する。
func NewRetransmissionStore(vc *ValkeyClient) RetransmissionStore {
	return &retransmissionStore{vc: vc}
}

// MarkIfAbsent はSETNXで再送検出キーを登録する。
// 同一キーで競合する2つのデータグラムのうち片方だけがtrueを得る。
func (s *retransmissionStore) MarkIfAbsent(ctx context.Context, key string) (bool, error) {
	k := KeyPrefixRetrans + key
	ok, err := s.vc.Client().SetNX(ctx, k, "1", config.RetransmissionTTL).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrValkeyUnavailable, err)
	}
	return ok, nil
}
