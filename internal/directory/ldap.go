package directory

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"golang.org/x/text/encoding/unicode"

	"github.com/MultifactorLab/multifactor-radius-adapter-sub002/internal/config"
)

// センチネルエラー
var (
	// ErrUserNotFound は検索でユーザーエントリが見つからなかった場合のエラー
	ErrUserNotFound = fmt.Errorf("user not found in directory")

	// ErrConnectionFailed はディレクトリへの接続に失敗した場合のエラー
	ErrConnectionFailed = fmt.Errorf("directory connection failed")
)

// ldapDirectory はgo-ldapによるDirectory実装
type ldapDirectory struct{}

// NewDirectory は新しいDirectory実装を生成する。
// 接続はリクエスト毎に確立・破棄される。
func NewDirectory() Directory {
	return &ldapDirectory{}
}

// dial はディレクトリへの接続を確立する。
func (d *ldapDirectory) dial(ctx context.Context, conn *ConnConfig) (*ldap.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := ldap.DialURL(conn.URL,
		ldap.DialWithDialer(&net.Dialer{Timeout: config.LDAPConnectTimeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	c.SetTimeout(config.LDAPConnectTimeout)
	return c, nil
}

// Bind はユーザー資格情報を検証する。
func (d *ldapDirectory) Bind(ctx context.Context, conn *ConnConfig, userName, password string) (BindOutcome, error) {
	c, err := d.dial(ctx, conn)
	if err != nil {
		return OutcomeInvalidCredentials, err
	}
	defer c.Close()

	bindDN, err := d.resolveBindDN(c, conn, userName)
	if err != nil {
		return OutcomeInvalidCredentials, err
	}

	if err := c.Bind(bindDN, password); err != nil {
		return classifyBindError(err, conn.ActiveDirectory)
	}
	return OutcomeSuccess, nil
}

// resolveBindDN はバインドに使用するDNを決定する。
// BindFormatがあればテンプレート展開、なければ検索でDNを引く。
func (d *ldapDirectory) resolveBindDN(c *ldap.Conn, conn *ConnConfig, userName string) (string, error) {
	if conn.BindFormat != "" {
		return fmt.Sprintf(conn.BindFormat, userName), nil
	}

	if err := c.Bind(conn.BindDN, conn.BindPassword); err != nil {
		return "", fmt.Errorf("service bind failed: %w", err)
	}
	entry, err := d.searchEntry(c, conn, userName)
	if err != nil {
		return "", err
	}
	return entry.DN, nil
}

// Search はユーザープロファイルを検索する。
func (d *ldapDirectory) Search(ctx context.Context, conn *ConnConfig, userName string) (*Profile, error) {
	c, err := d.dial(ctx, conn)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	if err := c.Bind(conn.BindDN, conn.BindPassword); err != nil {
		return nil, fmt.Errorf("service bind failed: %w", err)
	}

	entry, err := d.searchEntry(c, conn, userName)
	if err != nil {
		return nil, err
	}
	return entryToProfile(entry, conn.ActiveDirectory), nil
}

// searchEntry はユーザー名でディレクトリエントリを1件検索する。
func (d *ldapDirectory) searchEntry(c *ldap.Conn, conn *ConnConfig, userName string) (*ldap.Entry, error) {
	escaped := ldap.EscapeFilter(userName)
	var filter string
	if conn.ActiveDirectory {
		filter = fmt.Sprintf("(&(objectClass=user)(sAMAccountName=%s))", escaped)
	} else {
		filter = fmt.Sprintf("(|(uid=%s)(cn=%s))", escaped, escaped)
	}

	req := ldap.NewSearchRequest(
		conn.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		config.LDAPSizeLimit,
		config.LDAPSearchTimeout,
		false,
		filter,
		[]string{"distinguishedName", "sAMAccountName", "uid", "displayName", "cn", "mail", "telephoneNumber", "mobile", "memberOf"},
		nil,
	)

	res, err := c.Search(req)
	if err != nil {
		return nil, fmt.Errorf("directory search failed: %w", err)
	}
	if len(res.Entries) == 0 {
		return nil, ErrUserNotFound
	}
	return res.Entries[0], nil
}

// entryToProfile はLDAPエントリをProfileに変換する。
func entryToProfile(entry *ldap.Entry, activeDirectory bool) *Profile {
	p := &Profile{
		DN:    entry.DN,
		Name:  entry.GetAttributeValue("displayName"),
		Email: entry.GetAttributeValue("mail"),
		Phone: entry.GetAttributeValue("telephoneNumber"),
	}
	if p.Name == "" {
		p.Name = entry.GetAttributeValue("cn")
	}
	if p.Phone == "" {
		p.Phone = entry.GetAttributeValue("mobile")
	}
	if activeDirectory {
		p.UserName = entry.GetAttributeValue("sAMAccountName")
	} else {
		p.UserName = entry.GetAttributeValue("uid")
	}

	for _, dn := range entry.GetAttributeValues("memberOf") {
		if cn := extractCN(dn); cn != "" {
			p.MemberOf = append(p.MemberOf, cn)
		}
	}
	return p
}

// extractCN はグループDNから先頭のCN値を取り出す。
func extractCN(dn string) string {
	for _, part := range strings.Split(dn, ",") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(strings.ToLower(part), "cn=") {
			return part[3:]
		}
	}
	return ""
}

// ChangePassword はユーザーのパスワードを変更する。
func (d *ldapDirectory) ChangePassword(ctx context.Context, conn *ConnConfig, userName, oldPassword, newPassword string) error {
	c, err := d.dial(ctx, conn)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Bind(conn.BindDN, conn.BindPassword); err != nil {
		return fmt.Errorf("service bind failed: %w", err)
	}
	entry, err := d.searchEntry(c, conn, userName)
	if err != nil {
		return err
	}

	if conn.ActiveDirectory {
		return d.changeADPassword(c, entry.DN, oldPassword, newPassword)
	}

	req := ldap.NewPasswordModifyRequest(entry.DN, oldPassword, newPassword)
	if _, err := c.PasswordModify(req); err != nil {
		return fmt.Errorf("password modify failed: %w", err)
	}
	return nil
}

// changeADPassword はunicodePwd属性の差し替えでADパスワードを変更する。
// 値はUTF-16LEでエンコードしたダブルクォート囲み文字列（MS仕様）。
// LDAPS接続が必須。
func (d *ldapDirectory) changeADPassword(c *ldap.Conn, dn, oldPassword, newPassword string) error {
	oldEnc, err := encodeUnicodePwd(oldPassword)
	if err != nil {
		return err
	}
	newEnc, err := encodeUnicodePwd(newPassword)
	if err != nil {
		return err
	}

	mod := ldap.NewModifyRequest(dn, nil)
	mod.Delete("unicodePwd", []string{oldEnc})
	mod.Add("unicodePwd", []string{newEnc})

	if err := c.Modify(mod); err != nil {
		return fmt.Errorf("unicodePwd modify failed: %w", err)
	}
	return nil
}

// encodeUnicodePwd はパスワードをAD unicodePwd形式にエンコードする。
func encodeUnicodePwd(password string) (string, error) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	out, err := enc.String(`"` + password + `"`)
	if err != nil {
		return "", fmt.Errorf("unicodePwd encode failed: %w", err)
	}
	return out, nil
}
