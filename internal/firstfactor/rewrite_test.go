package firstfactor

import (
	"testing"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"
)

func TestRewriteUserName(t *testing.T) {
	tests := []struct {
		name   string
		client config.ClientConfig
		in     string
		want   string
	}{
		{
			name: "no rules",
			in:   "alice",
			want: "alice",
		},
		{
			name:   "strip prefix",
			client: config.ClientConfig{StripPrefix: "CORP\\"},
			in:     "CORP\\alice",
			want:   "alice",
		},
		{
			name:   "strip suffix",
			client: config.ClientConfig{StripSuffix: "@corp.local"},
			in:     "alice@corp.local",
			want:   "alice",
		},
		{
			name:   "append suffix",
			client: config.ClientConfig{AppendSuffix: "@corp.local"},
			in:     "alice",
			want:   "alice@corp.local",
		},
		{
			name:   "append suffix already present",
			client: config.ClientConfig{AppendSuffix: "@corp.local"},
			in:     "alice@corp.local",
			want:   "alice@corp.local",
		},
		{
			name: "strip then append",
			client: config.ClientConfig{
				StripSuffix:  "@old.local",
				AppendSuffix: "@corp.local",
			},
			in:   "alice@old.local",
			want: "alice@corp.local",
		},
		{
			name:   "prefix not present",
			client: config.ClientConfig{StripPrefix: "CORP\\"},
			in:     "alice",
			want:   "alice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RewriteUserName(&tt.client, tt.in); got != tt.want {
				t.Errorf("RewriteUserName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
