package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	// MaxCookieSize matches the browser limit for a single cookie.
	MaxCookieSize = 4096

	minSecretLength = 32

	signInfo    = "squadcart/cookie/sign/v1"
	encryptInfo = "squadcart/cookie/encrypt/v1"
)

type keyPair struct {
	sign    []byte
	encrypt cipher.AEAD
}

// Codec signs and seals cookie values. The first secret is used for new
// values; all secrets are tried when reading, which allows rotation.
type Codec struct {
	keys []keyPair
}

// NewCodec derives signing and encryption keys from each secret with HKDF-SHA256.
func NewCodec(secrets []string) (*Codec, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}

	c := &Codec{keys: make([]keyPair, 0, len(secrets))}
	for i, secret := range secrets {
		if len(secret) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d",
				ErrSecretTooShort, i, len(secret), minSecretLength)
		}

		signKey, err := derive(secret, signInfo)
		if err != nil {
			return nil, err
		}
		encKey, err := derive(secret, encryptInfo)
		if err != nil {
			return nil, err
		}
		block, err := aes.NewCipher(encKey)
		if err != nil {
			return nil, err
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}

		c.keys = append(c.keys, keyPair{sign: signKey, encrypt: gcm})
	}

	return c, nil
}

func derive(secret, info string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive cookie key: %w", err)
	}
	return key, nil
}

// Sign returns base64(value) + "|" + base64(HMAC(name|value)).
// Binding the name prevents moving a signed value to another cookie.
func (c *Codec) Sign(name, value string) string {
	sig := mac(c.keys[0].sign, name, value)
	return base64.URLEncoding.EncodeToString([]byte(value)) + "|" + base64.URLEncoding.EncodeToString(sig)
}

// Verify checks a value produced by Sign against every secret.
func (c *Codec) Verify(name, signed string) (string, error) {
	encodedValue, encodedSig, ok := strings.Cut(signed, "|")
	if !ok {
		return "", ErrInvalidFormat
	}

	value, err := base64.URLEncoding.DecodeString(encodedValue)
	if err != nil {
		return "", ErrInvalidFormat
	}
	sig, err := base64.URLEncoding.DecodeString(encodedSig)
	if err != nil {
		return "", ErrInvalidFormat
	}

	valid := slices.ContainsFunc(c.keys, func(k keyPair) bool {
		return subtle.ConstantTimeCompare(sig, mac(k.sign, name, string(value))) == 1
	})
	if !valid {
		return "", ErrInvalidSignature
	}

	return string(value), nil
}

// Seal encrypts value with AES-256-GCM using name as additional data.
func (c *Codec) Seal(name, value string) (string, error) {
	gcm := c.keys[0].encrypt
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(value), []byte(name))
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Open decrypts a value produced by Seal, trying every secret.
func (c *Codec) Open(name, sealed string) (string, error) {
	data, err := base64.URLEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrInvalidFormat
	}

	for _, k := range c.keys {
		ns := k.encrypt.NonceSize()
		if len(data) < ns {
			return "", ErrInvalidFormat
		}
		plaintext, err := k.encrypt.Open(nil, data[:ns], data[ns:], []byte(name))
		if err == nil {
			return string(plaintext), nil
		}
	}

	return "", ErrDecryptionFailed
}

func mac(key []byte, name, value string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(name))
	h.Write([]byte{'|'})
	h.Write([]byte(value))
	return h.Sum(nil)
}
