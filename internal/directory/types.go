// Package directory はLDAP/Active Directoryに対するバインド検証・
// プロファイル検索・パスワード変更を提供する。
package directory

import "github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"

// Profile はディレクトリから取得したユーザープロファイル
type Profile struct {
	// DN はエントリの識別名
	DN string
	// UserName はsAMAccountName（またはuid）
	UserName string
	// Name は表示名
	Name string
	// Email はメールアドレス
	Email string
	// Phone は電話番号
	Phone string
	// MemberOf は所属グループのCN一覧
	MemberOf []string
}

// ConnConfig はディレクトリ接続パラメータ。
// NASクライアント設定から組み立てられる。
type ConnConfig struct {
	// URL は "ldap://host:389" または "ldaps://host:636" 形式
	URL string
	// BaseDN は検索ベース
	BaseDN string
	// BindFormat はユーザーバインドDNの組み立てテンプレート。
	// "%s" がユーザー名に置換される（例: "%s@example.local"）。
	// 空の場合はサービスバインド＋検索で得たDNを使用する。
	BindFormat string
	// BindDN はプロファイル検索用サービスアカウントDN
	BindDN string
	// BindPassword はサービスアカウントのパスワード
	BindPassword string
	// ActiveDirectory はAD固有の動作（エラーサブコード分類、unicodePwd）を有効にする
	ActiveDirectory bool
}

// ConnFromClient はNASクライアント設定からConnConfigを組み立てる。
func ConnFromClient(c *config.ClientConfig) *ConnConfig {
	return &ConnConfig{
		URL:             c.LDAPURL,
		BaseDN:          c.LDAPBaseDN,
		BindFormat:      c.LDAPBindFormat,
		BindDN:          c.LDAPBindDN,
		BindPassword:    c.LDAPBindPassword,
		ActiveDirectory: c.LDAPIsAD,
	}
}
