// Package logging はログ関連のユーティリティを提供する。
package logging

import "strings"

// MaskUserName はユーザー名をマスキングする。
// 先頭2文字 + マスク。例: alice → al***
// enabled=false の場合はマスキングせずにそのまま返す。
func MaskUserName(userName string, enabled bool) string {
	if !enabled {
		return userName
	}
	return MaskPartial(userName, 2, 0, '*')
}

// MaskPartial は文字列の一部をマスキングする。
// keepPrefix: 先頭から保持する文字数
// keepSuffix: 末尾から保持する文字数
// maskChar: マスキングに使用する文字
func MaskPartial(s string, keepPrefix, keepSuffix int, maskChar rune) string {
	runes := []rune(s)
	if len(runes) <= keepPrefix+keepSuffix {
		return s
	}
	masked := len(runes) - keepPrefix - keepSuffix
	var b strings.Builder
	b.WriteString(string(runes[:keepPrefix]))
	for i := 0; i < masked; i++ {
		b.WriteRune(maskChar)
	}
	b.WriteString(string(runes[len(runes)-keepSuffix:]))
	return b.String()
}
