package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthenticationSource はファーストファクターの認証先を表す
type AuthenticationSource int

const (
	// SourceNone はファーストファクターを実施しない（パスワード欄にワンタイムコードが入る構成）
	SourceNone AuthenticationSource = iota
	// SourceDirectory はLDAP/ADディレクトリへのバインドで検証する
	SourceDirectory
	// SourceRadius は上流RADIUSサーバーへ委譲する
	SourceRadius
)

// String はAuthenticationSourceの文字列表現を返す
func (s AuthenticationSource) String() string {
	switch s {
	case SourceNone:
		return "none"
	case SourceDirectory:
		return "directory"
	case SourceRadius:
		return "radius"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ParseAuthenticationSource は設定文字列をAuthenticationSourceに変換する
func ParseAuthenticationSource(s string) (AuthenticationSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SourceNone, nil
	case "directory", "ldap", "ad":
		return SourceDirectory, nil
	case "radius":
		return SourceRadius, nil
	default:
		return SourceNone, fmt.Errorf("unknown authentication source %q", s)
	}
}

// PreAuthMode はセカンドファクターの事前認証方式を表す
type PreAuthMode int

const (
	// PreAuthNone は事前認証なし（ファーストファクター後にセカンドファクター）
	PreAuthNone PreAuthMode = iota
	// PreAuthOTP はワンタイムコードを先に収集する
	PreAuthOTP
	// PreAuthPush はプッシュ承認を先に実施する
	PreAuthPush
	// PreAuthTelegram はTelegram承認を先に実施する
	PreAuthTelegram
)

// String はPreAuthModeの文字列表現を返す
func (m PreAuthMode) String() string {
	switch m {
	case PreAuthNone:
		return "none"
	case PreAuthOTP:
		return "otp"
	case PreAuthPush:
		return "push"
	case PreAuthTelegram:
		return "telegram"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParsePreAuthMode は設定文字列をPreAuthModeに変換する
func ParsePreAuthMode(s string) (PreAuthMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return PreAuthNone, nil
	case "otp":
		return PreAuthOTP, nil
	case "push":
		return PreAuthPush, nil
	case "telegram":
		return PreAuthTelegram, nil
	default:
		return PreAuthNone, fmt.Errorf("unknown preauth mode %q", s)
	}
}

// ClientConfig はNASクライアント単位の設定を保持する。
// Valkeyの client:<ip> ハッシュから読み込まれる。
type ClientConfig struct {
	Name                 string `redis:"name"`
	Secret               string `redis:"secret"`
	AuthenticationSource string `redis:"auth_source"`
	PreAuthMode          string `redis:"preauth_mode"`

	// メンバーシップ検査
	CheckMembership bool   `redis:"check_membership"`
	RequiredGroups  string `redis:"required_groups"`

	// ユーザー名書き換えルール
	StripPrefix  string `redis:"strip_prefix"`
	StripSuffix  string `redis:"strip_suffix"`
	AppendSuffix string `redis:"append_suffix"`

	// ディレクトリ接続設定
	LDAPURL          string `redis:"ldap_url"`
	LDAPBaseDN       string `redis:"ldap_base_dn"`
	LDAPBindFormat   string `redis:"ldap_bind_format"`
	LDAPBindDN       string `redis:"ldap_bind_dn"`
	LDAPBindPassword string `redis:"ldap_bind_password"`
	LDAPIsAD         bool   `redis:"ldap_ad"`

	// 上流RADIUSプロキシ設定
	UpstreamAddr   string `redis:"upstream_addr"`
	UpstreamSecret string `redis:"upstream_secret"`

	// 認証済みクライアントキャッシュ設定
	AuthCacheEnabled         bool  `redis:"auth_cache_enabled"`
	AuthCacheMinimalMatching bool  `redis:"auth_cache_minimal"`
	AuthCacheLifetimeSec     int64 `redis:"auth_cache_lifetime"`

	// Multifactor API到達不能時のバイパスポリシー
	BypassOnUnreachable bool `redis:"bypass_on_unreachable"`
}

// Source はAuthenticationSourceをenumとして返す。
// 不正値はValidateで弾かれている前提でSourceNoneに落とす。
func (c *ClientConfig) Source() AuthenticationSource {
	s, _ := ParseAuthenticationSource(c.AuthenticationSource)
	return s
}

// Mode はPreAuthModeをenumとして返す
func (c *ClientConfig) Mode() PreAuthMode {
	m, _ := ParsePreAuthMode(c.PreAuthMode)
	return m
}

// Groups はRequiredGroupsをカンマ区切りで分解して返す
func (c *ClientConfig) Groups() []string {
	if strings.TrimSpace(c.RequiredGroups) == "" {
		return nil
	}
	parts := strings.Split(c.RequiredGroups, ",")
	groups := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

// AuthCacheLifetime は認証済みクライアントキャッシュの有効期間を返す
func (c *ClientConfig) AuthCacheLifetime() time.Duration {
	return time.Duration(c.AuthCacheLifetimeSec) * time.Second
}

// Validate はClientConfigの内容を検証する
func (c *ClientConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("client name must not be empty")
	}
	if c.Secret == "" {
		return fmt.Errorf("client %s: shared secret must not be empty", c.Name)
	}
	src, err := ParseAuthenticationSource(c.AuthenticationSource)
	if err != nil {
		return fmt.Errorf("client %s: %w", c.Name, err)
	}
	if _, err := ParsePreAuthMode(c.PreAuthMode); err != nil {
		return fmt.Errorf("client %s: %w", c.Name, err)
	}
	if src == SourceDirectory && c.LDAPURL == "" {
		return fmt.Errorf("client %s: ldap_url required for directory source", c.Name)
	}
	if src == SourceRadius && c.UpstreamAddr == "" {
		return fmt.Errorf("client %s: upstream_addr required for radius source", c.Name)
	}
	return nil
}
