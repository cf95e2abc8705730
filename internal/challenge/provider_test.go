package challenge

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/mock/gomock"
	"layeh.com/radius"
	"layeh.com/radius/rfc2865"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/auth"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/mfa"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/mocks"
	internalradius "github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/radius"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/store"
)

func newTestProvider(t *testing.T, ctrl *gomock.Controller) (*Provider, *mocks.MockClient, *mocks.MockDirectory) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	vc := store.NewValkeyClientFromRedis(client)
	t.Cleanup(func() { _ = vc.Close() })

	mfaMock := mocks.NewMockClient(ctrl)
	dirMock := mocks.NewMockDirectory(ctrl)
	box, err := NewSecretBox("test-api-secret")
	if err != nil {
		t.Fatal(err)
	}
	return NewProvider(store.NewChallengeStore(vc), mfaMock, dirMock, box), mfaMock, dirMock
}

func testClient(name string) *config.ClientConfig {
	return &config.ClientConfig{
		Name:                 name,
		Secret:               "rad-secret",
		AuthenticationSource: "none",
		PreAuthMode:          "none",
	}
}

func newRequestContext(client *config.ClientConfig, userName string) *auth.RequestContext {
	p := radius.New(radius.CodeAccessRequest, []byte(client.Secret))
	_ = rfc2865.UserName_SetString(p, userName)
	return &auth.RequestContext{
		TraceID:    "trace-test",
		RemoteAddr: "10.0.0.1:49152",
		Client:     client,
		Request:    p,
		Secret:     p.Secret,
		UserName:   userName,
	}
}

// challengeRound は前ラウンドのStateトークンをエコーした継続リクエストを作る
func challengeRound(client *config.ClientConfig, userName, answer string, token []byte) *auth.RequestContext {
	p := radius.New(radius.CodeAccessRequest, []byte(client.Secret))
	_ = rfc2865.UserName_SetString(p, userName)
	_ = rfc2865.State_Set(p, token)
	_ = internalradius.SetUserPassword(p, answer)
	return &auth.RequestContext{
		TraceID:    "trace-test-2",
		RemoteAddr: "10.0.0.1:49152",
		Client:     client,
		Request:    p,
		Secret:     p.Secret,
	}
}

func TestResumeWithoutState(t *testing.T) {
	ctrl := gomock.NewController(t)
	p, _, _ := newTestProvider(t, ctrl)

	rc := newRequestContext(testClient("gw"), "alice")
	if err := p.Resume(context.Background(), rc); !errors.Is(err, ErrUnknownState) {
		t.Errorf("Resume = %v, want ErrUnknownState", err)
	}
}

func TestResumeUnknownToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	p, _, _ := newTestProvider(t, ctrl)

	rc := challengeRound(testClient("gw"), "alice", "123456", []byte("never-issued"))
	if err := p.Resume(context.Background(), rc); !errors.Is(err, ErrUnknownState) {
		t.Errorf("Resume = %v, want ErrUnknownState", err)
	}
}

func TestSecondFactorChallengeGranted(t *testing.T) {
	ctrl := gomock.NewController(t)
	p, mfaMock, _ := newTestProvider(t, ctrl)
	ctx := context.Background()
	client := testClient("gw")

	// ラウンド1: 追加入力待ちコンテキストを保存
	rc1 := newRequestContext(client, "alice")
	rc1.State.FirstFactor = auth.StatusAccept
	if err := p.AddSecondFactorContext(ctx, rc1, "req-77", "Enter OTP"); err != nil {
		t.Fatalf("AddSecondFactorContext failed: %v", err)
	}
	if rc1.ResponseCode != radius.CodeAccessChallenge {
		t.Fatalf("ResponseCode = %v, want AccessChallenge", rc1.ResponseCode)
	}
	if len(rc1.StateToken) == 0 {
		t.Fatal("StateToken is empty")
	}

	// ラウンド2: ワンタイムコード入力がMFA APIへ送られる
	mfaMock.EXPECT().
		Challenge(gomock.Any(), &mfa.ChallengeRequest{
			Identity:  "alice",
			Challenge: "123456",
			RequestID: "req-77",
		}).
		Return(&mfa.AccessResponse{Status: mfa.StatusGranted}, nil)

	rc2 := challengeRound(client, "alice", "123456", rc1.StateToken)
	if err := p.Resume(ctx, rc2); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}

	if rc2.State.SecondFactor != auth.StatusAccept {
		t.Errorf("SecondFactor = %v, want Accept", rc2.State.SecondFactor)
	}
	// ファーストファクターの状態が復元される
	if rc2.State.FirstFactor != auth.StatusAccept {
		t.Errorf("FirstFactor = %v, want Accept", rc2.State.FirstFactor)
	}
	if rc2.UserName != "alice" {
		t.Errorf("UserName = %q, want alice", rc2.UserName)
	}

	// コンテキストは消費済み、同じトークンの再利用は弾かれる
	rc3 := challengeRound(client, "alice", "123456", rc1.StateToken)
	if err := p.Resume(ctx, rc3); !errors.Is(err, ErrUnknownState) {
		t.Errorf("replayed token Resume = %v, want ErrUnknownState", err)
	}
}

func TestSecondFactorGrantRestoresOriginalPassphrase(t *testing.T) {
	ctrl := gomock.NewController(t)
	p, mfaMock, _ := newTestProvider(t, ctrl)
	ctx := context.Background()
	client := testClient("gw")

	// ラウンド1時点の第一要素パスワードを退避する
	rc1 := newRequestContext(client, "alice")
	rc1.State.FirstFactor = auth.StatusAccept
	rc1.Passphrase = "original-password"
	if err := p.AddSecondFactorContext(ctx, rc1, "req-1", "Enter OTP"); err != nil {
		t.Fatal(err)
	}

	mfaMock.EXPECT().
		Challenge(gomock.Any(), gomock.Any()).
		Return(&mfa.AccessResponse{Status: mfa.StatusGranted}, nil)

	// ラウンド2のUser-Passwordにはワンタイムコードが載ってくる
	rc2 := challengeRound(client, "alice", "123456", rc1.StateToken)
	if err := p.Resume(ctx, rc2); err != nil {
		t.Fatal(err)
	}
	if rc2.State.SecondFactor != auth.StatusAccept {
		t.Fatalf("SecondFactor = %v, want Accept", rc2.State.SecondFactor)
	}

	// 成立後のPassphraseは第一要素のパスワードであってOTPではない
	if rc2.Passphrase != "original-password" {
		t.Errorf("Passphrase = %q, want original-password", rc2.Passphrase)
	}
}

func TestSecondFactorChallengeDenied(t *testing.T) {
	ctrl := gomock.NewController(t)
	p, mfaMock, _ := newTestProvider(t, ctrl)
	ctx := context.Background()
	client := testClient("gw")

	rc1 := newRequestContext(client, "alice")
	if err := p.AddSecondFactorContext(ctx, rc1, "req-1", "Enter OTP"); err != nil {
		t.Fatal(err)
	}

	mfaMock.EXPECT().
		Challenge(gomock.Any(), gomock.Any()).
		Return(&mfa.AccessResponse{Status: mfa.StatusDenied, ReplyMessage: "denied"}, nil)

	rc2 := challengeRound(client, "alice", "000000", rc1.StateToken)
	if err := p.Resume(ctx, rc2); err != nil {
		t.Fatal(err)
	}
	if rc2.ResponseCode != radius.CodeAccessReject {
		t.Errorf("ResponseCode = %v, want AccessReject", rc2.ResponseCode)
	}
	if rc2.State.SecondFactor != auth.StatusReject {
		t.Errorf("SecondFactor = %v, want Reject", rc2.State.SecondFactor)
	}
}

func TestSecondFactorChallengeAwaitingAgain(t *testing.T) {
	ctrl := gomock.NewController(t)
	p, mfaMock, _ := newTestProvider(t, ctrl)
	ctx := context.Background()
	client := testClient("gw")

	rc1 := newRequestContext(client, "alice")
	if err := p.AddSecondFactorContext(ctx, rc1, "req-1", "Enter OTP"); err != nil {
		t.Fatal(err)
	}

	mfaMock.EXPECT().
		Challenge(gomock.Any(), gomock.Any()).
		Return(&mfa.AccessResponse{
			Status:       mfa.StatusAwaiting,
			RequestID:    "req-2",
			ReplyMessage: "Try again",
		}, nil)

	rc2 := challengeRound(client, "alice", "bad", rc1.StateToken)
	if err := p.Resume(ctx, rc2); err != nil {
		t.Fatal(err)
	}
	if rc2.ResponseCode != radius.CodeAccessChallenge {
		t.Fatalf("ResponseCode = %v, want AccessChallenge", rc2.ResponseCode)
	}
	if rc2.ReplyMessage != "Try again" {
		t.Errorf("ReplyMessage = %q", rc2.ReplyMessage)
	}

	// 同一トークンのままリクエストIDが更新されている
	mfaMock.EXPECT().
		Challenge(gomock.Any(), &mfa.ChallengeRequest{
			Identity:  "alice",
			Challenge: "123456",
			RequestID: "req-2",
		}).
		Return(&mfa.AccessResponse{Status: mfa.StatusGranted}, nil)

	rc3 := challengeRound(client, "alice", "123456", rc2.StateToken)
	if err := p.Resume(ctx, rc3); err != nil {
		t.Fatal(err)
	}
	if rc3.State.SecondFactor != auth.StatusAccept {
		t.Errorf("SecondFactor = %v, want Accept", rc3.State.SecondFactor)
	}
}

func TestSecondFactorTokenCrossClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	p, _, _ := newTestProvider(t, ctrl)
	ctx := context.Background()

	clientA := testClient("gw-a")
	rc1 := newRequestContext(clientA, "alice")
	if err := p.AddSecondFactorContext(ctx, rc1, "req-1", "Enter OTP"); err != nil {
		t.Fatal(err)
	}

	// 別クライアントからの同一トークン持ち込みは相関しない
	clientB := testClient("gw-b")
	rc2 := challengeRound(clientB, "alice", "123456", rc1.StateToken)
	if err := p.Resume(ctx, rc2); !errors.Is(err, ErrUnknownState) {
		t.Errorf("cross-client Resume = %v, want ErrUnknownState", err)
	}
}

func TestSecondFactorUnreachableBypass(t *testing.T) {
	ctrl := gomock.NewController(t)
	p, mfaMock, _ := newTestProvider(t, ctrl)
	ctx := context.Background()

	client := testClient("gw")
	client.BypassOnUnreachable = true

	rc1 := newRequestContext(client, "alice")
	rc1.State.FirstFactor = auth.StatusAccept
	if err := p.AddSecondFactorContext(ctx, rc1, "req-1", "Enter OTP"); err != nil {
		t.Fatal(err)
	}

	mfaMock.EXPECT().
		Challenge(gomock.Any(), gomock.Any()).
		Return(nil, mfa.ErrUnreachable)

	rc2 := challengeRound(client, "alice", "123456", rc1.StateToken)
	if err := p.Resume(ctx, rc2); err != nil {
		t.Fatal(err)
	}
	if rc2.State.SecondFactor != auth.StatusBypass {
		t.Errorf("SecondFactor = %v, want Bypass", rc2.State.SecondFactor)
	}
}

func TestSecondFactorUnreachableNoBypass(t *testing.T) {
	ctrl := gomock.NewController(t)
	p, mfaMock, _ := newTestProvider(t, ctrl)
	ctx := context.Background()

	client := testClient("gw")

	rc1 := newRequestContext(client, "alice")
	if err := p.AddSecondFactorContext(ctx, rc1, "req-1", "Enter OTP"); err != nil {
		t.Fatal(err)
	}

	mfaMock.EXPECT().
		Challenge(gomock.Any(), gomock.Any()).
		Return(nil, mfa.ErrUnreachable)

	rc2 := challengeRound(client, "alice", "123456", rc1.StateToken)
	if err := p.Resume(ctx, rc2); err != nil {
		t.Fatal(err)
	}
	if rc2.ResponseCode != radius.CodeAccessReject {
		t.Errorf("ResponseCode = %v, want AccessReject", rc2.ResponseCode)
	}
}
