package store

import (
	"context"
	"fmt"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"
)

// clientStore はClientStoreの実装。
type clientStore struct {
	vc *ValkeyClient
}

// NewClientStore は新しいClientStoreを生成する。
func NewClientStore(vc *ValkeyClient) ClientStore {
	return &clientStore{vc: vc}
}

// GetClient は送信元IPに対応するClientConfigを取得する。
func (s *clientStore) GetClient(ctx context.Context, ip string) (*config.ClientConfig, error) {
	key := KeyPrefixClient + ip
	m, err := s.vc.Client().HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValkeyUnavailable, err)
	}
	if len(m) == 0 {
		return nil, ErrClientNotFound
	}

	var cc config.ClientConfig
	if err := MapToStruct(m, &cc); err != nil {
		return nil, fmt.Errorf("client config deserialization error: %w", err)
	}
	if cc.Name == "" {
		cc.Name = ip
	}
	if err := cc.Validate(); err != nil {
		return nil, fmt.Errorf("client config invalid: %w", err)
	}
	return &cc, nil
}

// GetClientSecret は送信元IPのShared Secretを取得する。
func (s *clientStore) GetClientSecret(ctx context.Context, ip string) (string, error) {
	key := KeyPrefixClient + ip
	secret, err := s.vc.Client().HGet(ctx, key, "secret").Result()
	if err != nil {
		if IsNil(err) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrValkeyUnavailable, err)
	}
	return secret, nil
}
