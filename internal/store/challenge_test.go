package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"
)

func TestChallengeStoreCreateAndGet(t *testing.T) {
	_, vc := newTestStore(t)
	cs := NewChallengeStore(vc)
	ctx := context.Background()

	pc := &PendingChallenge{
		Kind:         "second_factor",
		ClientName:   "vpn-gw",
		UserName:     "alice",
		MFARequestID: "req-42",
		Stage:        0,
		CreatedAt:    time.Now().Unix(),
	}
	if err := cs.Create(ctx, "vpn-gw:token1", pc); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := cs.Get(ctx, "vpn-gw:token1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.UserName != "alice" || got.MFARequestID != "req-42" || got.Kind != "second_factor" {
		t.Errorf("Get = %+v", got)
	}
}

func TestChallengeStoreGetNotFound(t *testing.T) {
	_, vc := newTestStore(t)
	cs := NewChallengeStore(vc)

	_, err := cs.Get(context.Background(), "vpn-gw:missing")
	if !errors.Is(err, ErrChallengeNotFound) {
		t.Errorf("err = %v, want ErrChallengeNotFound", err)
	}
}

func TestChallengeStoreTTLExpiry(t *testing.T) {
	mr, vc := newTestStore(t)
	cs := NewChallengeStore(vc)
	ctx := context.Background()

	pc := &PendingChallenge{Kind: "second_factor", ClientName: "c", UserName: "u"}
	if err := cs.Create(ctx, "c:tok", pc); err != nil {
		t.Fatal(err)
	}

	// TTL経過後はコンテキストが失効する
	mr.FastForward(config.ChallengeContextTTL + time.Second)

	_, err := cs.Get(ctx, "c:tok")
	if !errors.Is(err, ErrChallengeNotFound) {
		t.Errorf("err after TTL = %v, want ErrChallengeNotFound", err)
	}
}

func TestChallengeStoreUpdate(t *testing.T) {
	_, vc := newTestStore(t)
	cs := NewChallengeStore(vc)
	ctx := context.Background()

	pc := &PendingChallenge{Kind: "password_change", ClientName: "c", UserName: "u", Stage: 1}
	if err := cs.Create(ctx, "c:tok", pc); err != nil {
		t.Fatal(err)
	}

	updates := map[string]any{"stage": int64(2), "new_password_enc": "enc"}
	if err := cs.Update(ctx, "c:tok", updates); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := cs.Get(ctx, "c:tok")
	if err != nil {
		t.Fatal(err)
	}
	if got.Stage != 2 || got.NewPasswordEnc != "enc" {
		t.Errorf("after update: Stage = %d, NewPasswordEnc = %q", got.Stage, got.NewPasswordEnc)
	}
	// 既存フィールドは保持される
	if got.UserName != "u" {
		t.Errorf("UserName = %q, want u", got.UserName)
	}
}

func TestChallengeStoreUpdateMissing(t *testing.T) {
	_, vc := newTestStore(t)
	cs := NewChallengeStore(vc)

	err := cs.Update(context.Background(), "c:gone", map[string]any{"stage": int64(2)})
	if !errors.Is(err, ErrChallengeNotFound) {
		t.Errorf("err = %v, want ErrChallengeNotFound", err)
	}
}

func TestChallengeStoreUpdateRefreshesTTL(t *testing.T) {
	mr, vc := newTestStore(t)
	cs := NewChallengeStore(vc)
	ctx := context.Background()

	pc := &PendingChallenge{Kind: "second_factor", ClientName: "c", UserName: "u"}
	if err := cs.Create(ctx, "c:tok", pc); err != nil {
		t.Fatal(err)
	}

	// TTLの大半を消化してから更新するとTTLが巻き戻る
	mr.FastForward(config.ChallengeContextTTL - 30*time.Second)
	if err := cs.Update(ctx, "c:tok", map[string]any{"mfa_request_id": "r2"}); err != nil {
		t.Fatal(err)
	}

	mr.FastForward(time.Minute)
	if _, err := cs.Get(ctx, "c:tok"); err != nil {
		t.Errorf("Get after refreshed TTL failed: %v", err)
	}
}

func TestChallengeStoreDelete(t *testing.T) {
	_, vc := newTestStore(t)
	cs := NewChallengeStore(vc)
	ctx := context.Background()

	pc := &PendingChallenge{Kind: "second_factor", ClientName: "c", UserName: "u"}
	if err := cs.Create(ctx, "c:tok", pc); err != nil {
		t.Fatal(err)
	}
	if err := cs.Delete(ctx, "c:tok"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := cs.Get(ctx, "c:tok"); !errors.Is(err, ErrChallengeNotFound) {
		t.Errorf("err after delete = %v, want ErrChallengeNotFound", err)
	}

	// 存在しないキーの削除はエラーにならない
	if err := cs.Delete(ctx, "c:never"); err != nil {
		t.Errorf("Delete on missing key = %v, want nil", err)
	}
}
