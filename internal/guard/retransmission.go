// Package guard はNASからの再送データグラムの検出を提供する。
package guard

import (
	"context"
	"log/slog"

	"layeh.com/radius"

	internalradius "github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/radius"
	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/store"
)

// Detector は再送データグラムを検出する。
// 初回のリクエストのみ処理を許可し、同一論理リクエストの再送は破棄させる。
type Detector struct {
	store store.RetransmissionStore
}

// NewDetector は新しいDetectorを生成する。
func NewDetector(s store.RetransmissionStore) *Detector {
	return &Detector{store: s}
}

// ShouldProcess はこのデータグラムを処理すべきかを返す。
// コード・識別子・送信元・ユーザー名・Authenticatorが一致する
// 過去60秒以内のデータグラムは再送とみなして破棄する。
// Valkey障害時は検出をスキップして処理を許可する（フェイルオープン）。
func (d *Detector) ShouldProcess(ctx context.Context, p *radius.Packet, remoteAddr string) bool {
	key := internalradius.CreateUniqueKey(p, remoteAddr)

	first, err := d.store.MarkIfAbsent(ctx, key)
	if err != nil {
		slog.Warn("retransmission check failed, processing anyway",
			"event_id", "RETRANS_CHECK_ERR",
			"error", err.Error(),
		)
		return true
	}
	if !first {
		slog.Info("retransmission detected, dropping datagram",
			"event_id", "RETRANS_DETECTED",
			"identifier", p.Identifier,
			"remote_addr", remoteAddr,
		)
	}
	return first
}
