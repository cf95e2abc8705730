package store

import (
	"context"
	"fmt"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"
)

// PendingChallenge はUDPラウンドトリップをまたいで保持する認証コンテキストのスナップショット。
// 受信パケットはShared Secretで再デコードできるようbase64のワイヤ形式で保持する。
type PendingChallenge struct {
	Kind       string `redis:"kind"`
	ClientName string `redis:"client_name"`
	UserName   string `redis:"user_name"`

	// 元リクエストのワイヤ形式（base64）と送信元
	RequestPacket string `redis:"request_packet"`
	RemoteAddr    string `redis:"remote_addr"`

	// ディレクトリプロファイルのスナップショット
	ProfileDN     string `redis:"profile_dn"`
	ProfileEmail  string `redis:"profile_email"`
	ProfilePhone  string `redis:"profile_phone"`
	ProfileName   string `redis:"profile_name"`
	ProfileGroups string `redis:"profile_groups"`

	// 認証状態フラグ
	FirstFactor  string `redis:"first_factor"`
	SecondFactor string `redis:"second_factor"`

	// ネゴシエート済みパスフレーズ（OTP等）
	Passphrase string `redis:"passphrase"`

	// セカンドファクター用
	MFARequestID string `redis:"mfa_request_id"`
	ReplyMessage string `redis:"reply_message"`

	// パスワード変更用
	Domain             string `redis:"domain"`
	Stage              int64  `redis:"stage"`
	CurrentPasswordEnc string `redis:"current_password_enc"`
	NewPasswordEnc     string `redis:"new_password_enc"`

	CreatedAt int64 `redis:"created_at"`
}

// challengeStore はChallengeStoreの実装。
type challengeStore struct {
	vc *ValkeyClient
}

// NewChallengeStore は新しいChallengeStoreを生成する。
func NewChallengeStore(vc *ValkeyClient) ChallengeStore {
	return &challengeStore{vc: vc}
}

// Create は保留コンテキストをTTL付きで保存する。
func (s *challengeStore) Create(ctx context.Context, key string, pc *PendingChallenge) error {
	k := KeyPrefixChallenge + key
	m := StructToMap(pc)

	pipe := s.vc.Client().Pipeline()
	pipe.HSet(ctx, k, m)
	pipe.Expire(ctx, k, config.ChallengeContextTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrValkeyUnavailable, err)
	}
	return nil
}

// Get は保留コンテキストを取得する。
func (s *challengeStore) Get(ctx context.Context, key string) (*PendingChallenge, error) {
	k := KeyPrefixChallenge + key
	m, err := s.vc.Client().HGetAll(ctx, k).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValkeyUnavailable, err)
	}
	if len(m) == 0 {
		return nil, ErrChallengeNotFound
	}

	var pc PendingChallenge
	if err := MapToStruct(m, &pc); err != nil {
		return nil, fmt.Errorf("pending challenge deserialization error: %w", err)
	}
	return &pc, nil
}

// Update は保留コンテキストを部分更新し、TTLをリフレッシュする。
func (s *challengeStore) Update(ctx context.Context, key string, updates map[string]any) error {
	k := KeyPrefixChallenge + key

	exists, err := s.vc.Client().Exists(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValkeyUnavailable, err)
	}
	if exists == 0 {
		return ErrChallengeNotFound
	}

	pipe := s.vc.Client().Pipeline()
	pipe.HSet(ctx, k, updates)
	pipe.Expire(ctx, k, config.ChallengeContextTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrValkeyUnavailable, err)
	}
	return nil
}

// Delete は保留コンテキストを削除する。存在しなくてもエラーにしない。
func (s *challengeStore) Delete(ctx context.Context, key string) error {
	k := KeyPrefixChallenge + key
	if err := s.vc.Client().Del(ctx, k).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrValkeyUnavailable, err)
	}
	return nil
}
