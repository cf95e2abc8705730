package firstfactor

import (
	"strings"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"
)

// RewriteUserName はクライアント設定の書き換えルールを適用する。
// プレフィックス除去・サフィックス除去・サフィックス付与の順で評価される。
func RewriteUserName(client *config.ClientConfig, userName string) string {
	name := userName
	if client.StripPrefix != "" {
		name = strings.TrimPrefix(name, client.StripPrefix)
	}
	if client.StripSuffix != "" {
		name = strings.TrimSuffix(name, client.StripSuffix)
	}
	if client.AppendSuffix != "" && !strings.HasSuffix(name, client.AppendSuffix) {
		name += client.AppendSuffix
	}
	return name
}
