// Package seal implements the Iron (Fe26.2) sealed-string format used by the
// platform to store scm tokens at rest.
//
// A sealed value has eight '*'-separated parts:
//
//	Fe26.2*<password id>*<enc salt>*<iv>*<ciphertext>*<expiration>*<hmac salt>*<hmac>
//
// The payload is the JSON encoding of the secret, encrypted with AES-256-CBC
// under a PBKDF2-SHA1 key; the first six parts are authenticated with
// HMAC-SHA256 under a second PBKDF2 key.
package seal

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/bravo68web/testuser/internal/domain/service"
	apperrors "github.com/bravo68web/testuser/pkg/errors"
)

const (
	macPrefix         = "Fe26.2"
	saltBits          = 256
	keyBits           = 256
	ivBytes           = aes.BlockSize
	iterations        = 1
	MinPasswordLength = 32
)

var (
	// ErrMalformed indicates the sealed value is not in Fe26.2 format
	ErrMalformed = errors.New("malformed sealed value")
	// ErrBadIntegrity indicates the HMAC did not verify
	ErrBadIntegrity = errors.New("bad hmac value")
)

// IronSealer seals strings under a fixed passphrase
type IronSealer struct {
	password []byte
	random   io.Reader
}

// Option customises an IronSealer
type Option func(*IronSealer)

// WithRandom replaces the entropy source used for salts and IVs
func WithRandom(r io.Reader) Option {
	return func(s *IronSealer) {
		s.random = r
	}
}

// NewIronSealer returns a sealer bound to password. Length is checked when
// sealing so a short password surfaces as a sealing failure.
func NewIronSealer(password string, opts ...Option) *IronSealer {
	s := &IronSealer{
		password: []byte(password),
		random:   rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seal encrypts plaintext into an Fe26.2 string
func (s *IronSealer) Seal(plaintext string) (string, error) {
	if len(s.password) < MinPasswordLength {
		return "", apperrors.SealingError(
			fmt.Sprintf("encryption password must be at least %d characters", MinPasswordLength),
			apperrors.ErrPasswordTooShort,
		)
	}

	payload, err := json.Marshal(plaintext)
	if err != nil {
		return "", apperrors.SealingError("failed to encode secret", err)
	}

	encSalt, err := s.salt()
	if err != nil {
		return "", apperrors.SealingError("failed to generate salt", err)
	}
	iv := make([]byte, ivBytes)
	if _, err := io.ReadFull(s.random, iv); err != nil {
		return "", apperrors.SealingError("failed to generate iv", err)
	}

	block, err := aes.NewCipher(s.deriveKey(encSalt))
	if err != nil {
		return "", apperrors.SealingError("failed to create cipher", err)
	}
	padded := pkcs7Pad(payload, aes.BlockSize)
	encrypted := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(encrypted, padded)

	macBase := strings.Join([]string{
		macPrefix,
		"", // password id
		encSalt,
		b64(iv),
		b64(encrypted),
		"", // expiration
	}, "*")

	macSalt, err := s.salt()
	if err != nil {
		return "", apperrors.SealingError("failed to generate salt", err)
	}

	return macBase + "*" + macSalt + "*" + b64(s.mac(macSalt, macBase)), nil
}

// Unseal verifies and decrypts an Fe26.2 string
func (s *IronSealer) Unseal(sealed string) (string, error) {
	parts := strings.Split(sealed, "*")
	if len(parts) != 8 || parts[0] != macPrefix {
		return "", apperrors.SealingError("failed to unseal", ErrMalformed)
	}
	if parts[5] != "" {
		return "", apperrors.SealingError("failed to unseal", fmt.Errorf("%w: expiring seals are not supported", ErrMalformed))
	}

	macBase := strings.Join(parts[:6], "*")
	gotMAC, err := unb64(parts[7])
	if err != nil {
		return "", apperrors.SealingError("failed to unseal", ErrMalformed)
	}
	if !hmac.Equal(gotMAC, s.mac(parts[6], macBase)) {
		return "", apperrors.SealingError("failed to unseal", ErrBadIntegrity)
	}

	iv, err := unb64(parts[3])
	if err != nil || len(iv) != ivBytes {
		return "", apperrors.SealingError("failed to unseal", ErrMalformed)
	}
	encrypted, err := unb64(parts[4])
	if err != nil || len(encrypted) == 0 || len(encrypted)%aes.BlockSize != 0 {
		return "", apperrors.SealingError("failed to unseal", ErrMalformed)
	}

	block, err := aes.NewCipher(s.deriveKey(parts[2]))
	if err != nil {
		return "", apperrors.SealingError("failed to create cipher", err)
	}
	decrypted := make([]byte, len(encrypted))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(decrypted, encrypted)

	payload, err := pkcs7Unpad(decrypted, aes.BlockSize)
	if err != nil {
		return "", apperrors.SealingError("failed to unseal", err)
	}

	var plaintext string
	if err := json.Unmarshal(payload, &plaintext); err != nil {
		return "", apperrors.SealingError("failed to decode secret", err)
	}
	return plaintext, nil
}

// salt returns saltBits of randomness as a hex string; the hex text itself
// is the PBKDF2 salt
func (s *IronSealer) salt() (string, error) {
	buf := make([]byte, saltBits/8)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *IronSealer) deriveKey(salt string) []byte {
	return pbkdf2.Key(s.password, []byte(salt), iterations, keyBits/8, sha1.New)
}

func (s *IronSealer) mac(salt, base string) []byte {
	h := hmac.New(sha256.New, s.deriveKey(salt))
	h.Write([]byte(base))
	return h.Sum(nil)
}

func b64(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func unb64(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, ErrMalformed
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, ErrMalformed
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, ErrMalformed
		}
	}
	return b[:len(b)-n], nil
}

var _ service.Sealer = (*IronSealer)(nil)
