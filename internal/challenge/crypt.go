package challenge

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrCiphertextInvalid は退避パスワードの復号失敗を示す
var ErrCiphertextInvalid = errors.New("invalid password ciphertext")

// SecretBox はパスワード変更フロー中にValkeyへ退避する
// パスワードのAES-256-GCM暗号化を提供する。
type SecretBox struct {
	aead cipher.AEAD
}

// NewSecretBox はAPIシークレットから導出した鍵でSecretBoxを生成する。
func NewSecretBox(apiSecret string) (*SecretBox, error) {
	key := sha256.Sum256([]byte(apiSecret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to init gcm: %w", err)
	}
	return &SecretBox{aead: aead}, nil
}

// Seal は平文を暗号化しbase64で返す。nonceは暗号文の先頭に連結される。
func (b *SecretBox) Seal(plaintext string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open はSealで生成された暗号文を復号する。
func (b *SecretBox) Open(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrCiphertextInvalid
	}
	ns := b.aead.NonceSize()
	if len(sealed) < ns {
		return "", ErrCiphertextInvalid
	}
	plain, err := b.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return "", ErrCiphertextInvalid
	}
	return string(plain), nil
}
