package security

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goliatone/go-destinations/core"
)

const (
	envelopePrefix = "destinations.secret.v1:"
	algorithm      = "aes-256-gcm"

	// EnvAppKey names the variable FromEnv reads key material from.
	EnvAppKey = "DESTINATIONS_APP_KEY"
)

// AppKeySecretProvider seals stored destination passwords with AES-GCM.
// Retired keys stay available for Decrypt so entries written before a key
// rotation remain readable.
type AppKeySecretProvider struct {
	keyID   string
	key     []byte
	retired map[string][]byte
	aad     []byte
}

type envelope struct {
	KeyID      string `json:"kid"`
	Algorithm  string `json:"alg"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

type Option func(*AppKeySecretProvider)

func WithKeyID(id string) Option {
	return func(p *AppKeySecretProvider) {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			p.keyID = trimmed
		}
	}
}

// WithRetiredKey registers decrypt-only key material under id.
func WithRetiredKey(id string, material []byte) Option {
	return func(p *AppKeySecretProvider) {
		id = strings.TrimSpace(id)
		material = bytes.TrimSpace(material)
		if id == "" || len(material) == 0 {
			return
		}
		p.retired[id] = normalizeKey(material)
	}
}

// WithAssociatedData binds ciphertexts to a purpose label.
func WithAssociatedData(label string) Option {
	return func(p *AppKeySecretProvider) {
		p.aad = []byte(label)
	}
}

func NewAppKeySecretProvider(keyMaterial []byte, opts ...Option) (*AppKeySecretProvider, error) {
	key := bytes.TrimSpace(keyMaterial)
	if len(key) == 0 {
		return nil, fmt.Errorf("security: key material is required")
	}
	provider := &AppKeySecretProvider{
		keyID:   "app-key",
		key:     normalizeKey(key),
		retired: map[string][]byte{},
		aad:     []byte("go-destinations:password"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(provider)
		}
	}
	delete(provider.retired, provider.keyID)
	return provider, nil
}

func NewAppKeySecretProviderFromString(key string, opts ...Option) (*AppKeySecretProvider, error) {
	return NewAppKeySecretProvider([]byte(key), opts...)
}

// FromEnv builds a provider from DESTINATIONS_APP_KEY.
func FromEnv(opts ...Option) (*AppKeySecretProvider, error) {
	value, ok := os.LookupEnv(EnvAppKey)
	if !ok || strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("security: %s is not set", EnvAppKey)
	}
	return NewAppKeySecretProviderFromString(value, opts...)
}

func (p *AppKeySecretProvider) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("security: secret provider is nil")
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("security: plaintext is required")
	}
	gcm, err := newGCM(p.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("security: nonce generation failed: %w", err)
	}

	data, err := json.Marshal(envelope{
		KeyID:      p.keyID,
		Algorithm:  algorithm,
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(gcm.Seal(nil, nonce, plaintext, p.aad)),
	})
	if err != nil {
		return nil, fmt.Errorf("security: encode envelope: %w", err)
	}
	return append([]byte(envelopePrefix), data...), nil
}

func (p *AppKeySecretProvider) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("security: secret provider is nil")
	}
	if !bytes.HasPrefix(ciphertext, []byte(envelopePrefix)) {
		return nil, fmt.Errorf("security: ciphertext is not a sealed envelope")
	}

	var parsed envelope
	if err := json.Unmarshal(ciphertext[len(envelopePrefix):], &parsed); err != nil {
		return nil, fmt.Errorf("security: decode envelope: %w", err)
	}
	if parsed.Algorithm != algorithm {
		return nil, fmt.Errorf("security: unsupported algorithm %q", parsed.Algorithm)
	}
	key, ok := p.keyFor(parsed.KeyID)
	if !ok {
		return nil, fmt.Errorf("security: unknown key id %q", parsed.KeyID)
	}

	nonce, err := base64.StdEncoding.DecodeString(parsed.Nonce)
	if err != nil {
		return nil, fmt.Errorf("security: decode nonce: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(parsed.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("security: decode ciphertext payload: %w", err)
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("security: invalid nonce length %d", len(nonce))
	}
	plaintext, err := gcm.Open(nil, nonce, sealed, p.aad)
	if err != nil {
		return nil, fmt.Errorf("security: decrypt payload: %w", err)
	}
	return plaintext, nil
}

func (p *AppKeySecretProvider) KeyID() string {
	if p == nil {
		return ""
	}
	return p.keyID
}

func (p *AppKeySecretProvider) keyFor(id string) ([]byte, bool) {
	if id == "" || id == p.keyID {
		return p.key, true
	}
	key, ok := p.retired[id]
	return key, ok
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("security: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("security: create gcm: %w", err)
	}
	return gcm, nil
}

// normalizeKey keeps 32 byte keys and hashes anything else down to 32 bytes.
func normalizeKey(value []byte) []byte {
	if len(value) == 32 {
		return append([]byte(nil), value...)
	}
	sum := sha256.Sum256(value)
	return sum[:]
}

var _ core.SecretProvider = (*AppKeySecretProvider)(nil)
