package server

import (
	"context"
	"log/slog"
	"net"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/store"
)

// DynamicSecretSource はValkey登録情報に基づくShared Secret解決を行う。
// layeh.com/radius.SecretSourceインターフェースの実装。
type DynamicSecretSource struct {
	clientStore    store.ClientStore
	fallbackSecret []byte
}

// NewSecretSource は新しいDynamicSecretSourceを生成する。
// fallbackSecretが空文字列の場合、未登録NASは復号不能として破棄される。
func NewSecretSource(cs store.ClientStore, fallbackSecret string) *DynamicSecretSource {
	var fb []byte
	if fallbackSecret != "" {
		fb = []byte(fallbackSecret)
	}
	return &DynamicSecretSource{
		clientStore:    cs,
		fallbackSecret: fb,
	}
}

// RADIUSSecret はリモートアドレスに対応するShared Secretを返す。
// Valkey登録 → フォールバック → nilの優先順で解決する。
func (s *DynamicSecretSource) RADIUSSecret(ctx context.Context, remoteAddr net.Addr) ([]byte, error) {
	ip := extractIP(remoteAddr)
	if ip == "" {
		slog.Warn("送信元IPアドレス抽出失敗",
			"event_id", "SECRET_IP_EXTRACT_ERR",
		)
		return s.fallback(), nil
	}

	secret, err := s.clientStore.GetClientSecret(ctx, ip)
	if err != nil {
		slog.Warn("Valkeyクライアント検索エラー",
			"event_id", "SECRET_LOOKUP_ERR",
			"src_ip", ip,
			"error", err,
		)
		return s.fallback(), nil
	}

	if secret != "" {
		return []byte(secret), nil
	}

	if fb := s.fallback(); fb != nil {
		return fb, nil
	}

	slog.Warn("Shared Secret不明、パケット破棄",
		"event_id", "SECRET_UNKNOWN",
		"src_ip", ip,
	)
	return nil, nil
}

func (s *DynamicSecretSource) fallback() []byte {
	if len(s.fallbackSecret) > 0 {
		return s.fallbackSecret
	}
	return nil
}

// extractIP はnet.AddrからIPアドレス文字列を抽出する
func extractIP(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	if udpAddr, ok := addr.(*net.UDPAddr); ok {
		return udpAddr.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return ""
	}
	return host
}
