package directory

import (
	"errors"
	"regexp"

	"github.com/go-ldap/ldap/v3"
)

// BindOutcome はバインド試行の結果区分
type BindOutcome int

const (
	// OutcomeSuccess は資格情報が正しい
	OutcomeSuccess BindOutcome = iota
	// OutcomeInvalidCredentials はパスワード不一致またはユーザー不存在
	OutcomeInvalidCredentials
	// OutcomeMustChangePassword はパスワード期限切れ・初回変更要求
	OutcomeMustChangePassword
	// OutcomeAccountLocked はアカウントロック
	OutcomeAccountLocked
	// OutcomeAccountDisabled はアカウント無効化
	OutcomeAccountDisabled
	// OutcomeAccountExpired はアカウント期限切れ
	OutcomeAccountExpired
	// OutcomeAccessDenied はログオン時間帯・ワークステーション制限
	OutcomeAccessDenied
)

// String はBindOutcomeの文字列表現を返す
func (o BindOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeInvalidCredentials:
		return "invalid_credentials"
	case OutcomeMustChangePassword:
		return "must_change_password"
	case OutcomeAccountLocked:
		return "account_locked"
	case OutcomeAccountDisabled:
		return "account_disabled"
	case OutcomeAccountExpired:
		return "account_expired"
	case OutcomeAccessDenied:
		return "access_denied"
	default:
		return "unknown"
	}
}

// adSubCodePattern はADのバインドエラーメッセージに含まれる "data NNN" サブコード
var adSubCodePattern = regexp.MustCompile(`data ([0-9a-fA-F]+)`)

// classifyBindError はLDAPバインドエラーを結果区分に変換する。
// ADの場合はdiagnosticメッセージのサブコードで詳細区分する。
// 接続障害など資格情報以外のエラーはそのまま返す。
func classifyBindError(err error, activeDirectory bool) (BindOutcome, error) {
	var ldapErr *ldap.Error
	if !errors.As(err, &ldapErr) {
		return OutcomeInvalidCredentials, err
	}

	if ldapErr.ResultCode != ldap.LDAPResultInvalidCredentials {
		return OutcomeInvalidCredentials, err
	}

	if !activeDirectory {
		return OutcomeInvalidCredentials, nil
	}

	// ADはInvalidCredentialsのdiagnosticに "data NNN" 形式でサブコードを載せる
	m := adSubCodePattern.FindStringSubmatch(ldapErr.Err.Error())
	if m == nil {
		return OutcomeInvalidCredentials, nil
	}

	switch m[1] {
	case "525": // user not found
		return OutcomeInvalidCredentials, nil
	case "52e": // invalid credentials
		return OutcomeInvalidCredentials, nil
	case "530", "531": // logon time / workstation restriction
		return OutcomeAccessDenied, nil
	case "532": // password expired
		return OutcomeMustChangePassword, nil
	case "533": // account disabled
		return OutcomeAccountDisabled, nil
	case "701": // account expired
		return OutcomeAccountExpired, nil
	case "773": // user must reset password
		return OutcomeMustChangePassword, nil
	case "775": // account locked out
		return OutcomeAccountLocked, nil
	default:
		return OutcomeInvalidCredentials, nil
	}
}
