package challenge

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"layeh.com/radius"
	"layeh.com/radius/rfc2865"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/auth"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/directory"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/mfa"
	internalradius "github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/radius"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/store"
)

// ErrUnknownState はStateトークンに対応する保留コンテキストが存在しない
var ErrUnknownState = errors.New("no pending challenge for state token")

// Provider は保留チャレンジの生成・相関・状態遷移を担う。
type Provider struct {
	store store.ChallengeStore
	mfa   mfa.Client
	dir   directory.Directory
	box   *SecretBox
}

// NewProvider は新しいProviderを生成する。
func NewProvider(s store.ChallengeStore, m mfa.Client, d directory.Directory, box *SecretBox) *Provider {
	return &Provider{store: s, mfa: m, dir: d, box: box}
}

// newStateToken は新しいStateトークンを生成する。
func newStateToken() []byte {
	return []byte(uuid.NewString())
}

// snapshot は現在のリクエストコンテキストをPendingChallengeに写し取る。
func snapshot(rc *auth.RequestContext, kind Kind) (*store.PendingChallenge, error) {
	wire, err := rc.Request.MarshalBinary()
	if err != nil {
		return nil, err
	}

	pc := &store.PendingChallenge{
		Kind:          string(kind),
		ClientName:    rc.Client.Name,
		UserName:      rc.UserName,
		RequestPacket: base64.StdEncoding.EncodeToString(wire),
		RemoteAddr:    rc.RemoteAddr,
		FirstFactor:   rc.State.FirstFactor.String(),
		SecondFactor:  rc.State.SecondFactor.String(),
		Passphrase:    rc.Passphrase,
		MFARequestID:  rc.MFARequestID,
		CreatedAt:     time.Now().Unix(),
	}
	if rc.Profile != nil {
		pc.ProfileDN = rc.Profile.DN
		pc.ProfileEmail = rc.Profile.Email
		pc.ProfilePhone = rc.Profile.Phone
		pc.ProfileName = rc.Profile.Name
		pc.ProfileGroups = strings.Join(rc.Profile.MemberOf, ",")
	}
	return pc, nil
}

// restore は保留コンテキストの内容をリクエストコンテキストへ書き戻す。
func restore(rc *auth.RequestContext, pc *store.PendingChallenge) {
	rc.UserName = pc.UserName
	rc.State.FirstFactor = auth.ParseStatus(pc.FirstFactor)
	rc.State.SecondFactor = auth.ParseStatus(pc.SecondFactor)
	rc.MFARequestID = pc.MFARequestID

	if pc.ProfileDN != "" || pc.ProfileEmail != "" || pc.ProfileName != "" {
		profile := &directory.Profile{
			DN:       pc.ProfileDN,
			UserName: pc.UserName,
			Name:     pc.ProfileName,
			Email:    pc.ProfileEmail,
			Phone:    pc.ProfilePhone,
		}
		if pc.ProfileGroups != "" {
			profile.MemberOf = strings.Split(pc.ProfileGroups, ",")
		}
		rc.Profile = profile
	}
}

// originalRequest は保留コンテキストに退避された元リクエストを復元する。
func originalRequest(pc *store.PendingChallenge, secret []byte) (*radius.Packet, error) {
	wire, err := base64.StdEncoding.DecodeString(pc.RequestPacket)
	if err != nil {
		return nil, err
	}
	return internalradius.Parse(wire, secret)
}

// Resume はState属性付きリクエストを保留チャレンジに相関させ、
// 種別に応じた状態遷移を実行する。保留コンテキストが見つからない
// 場合はErrUnknownStateを返す（処理はしない）。
func (p *Provider) Resume(ctx context.Context, rc *auth.RequestContext) error {
	state, ok := internalradius.GetState(rc.Request)
	if !ok {
		return ErrUnknownState
	}

	key := NewIdentifier(rc.Client.Name, state).Key()
	pc, err := p.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrChallengeNotFound) {
			return ErrUnknownState
		}
		return err
	}

	restore(rc, pc)

	// チャレンジ継続リクエストにCalling-Station-Idが載らないNASがあるため、
	// 退避した元リクエストから補完する（認証済みキャッシュのキーに必要）
	if _, ok := internalradius.GetCallingStationID(rc.Request); !ok {
		if orig, err := originalRequest(pc, rc.Secret); err == nil {
			if v, ok := internalradius.GetCallingStationID(orig); ok {
				_ = rfc2865.CallingStationID_SetString(rc.Request, v)
			}
		}
	}

	switch Kind(pc.Kind) {
	case KindSecondFactor:
		return p.processSecondFactor(ctx, rc, key, state, pc)
	case KindPasswordChange:
		return p.processPasswordChange(ctx, rc, key, state, pc)
	default:
		_ = p.store.Delete(ctx, key)
		return ErrUnknownState
	}
}
