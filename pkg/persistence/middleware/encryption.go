package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/lodge/pkg/domain"
	"github.com/aretw0/lodge/pkg/ports"
)

const envelopeKey = "__encrypted__"

var (
	// ErrNotEncrypted is returned when a stored record has no ciphertext.
	ErrNotEncrypted = errors.New("session is missing encrypted data envelope")
	// ErrDecrypt is returned when no configured key opens a record.
	ErrDecrypt = errors.New("decryption failed with all available keys")
)

// EncryptionConfig holds the AES-256 keys for session records.
type EncryptionConfig struct {
	// ActiveKey seals every record written. Must be 32 bytes.
	ActiveKey []byte

	// FallbackKeys are tried in order when ActiveKey cannot open a record,
	// so keys can be rotated without rewriting stored sessions first.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.SessionStore
	active cipher.AEAD
	// open lists the active AEAD first, then fallbacks.
	open []cipher.AEAD
}

// NewEncryptionMiddleware seals each Session with AES-GCM before it reaches
// the store. The stored envelope keeps only the ID, the active flag and the
// creation time in clear. The session ID is bound as additional data, so a
// ciphertext copied under another ID does not open.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, fmt.Errorf("active key must be 32 bytes (AES-256), got %d", len(config.ActiveKey))
	}
	active, err := newAEAD(config.ActiveKey)
	if err != nil {
		return nil, err
	}
	open := []cipher.AEAD{active}
	for i, key := range config.FallbackKeys {
		aead, err := newAEAD(key)
		if err != nil {
			return nil, fmt.Errorf("fallback key %d: %w", i, err)
		}
		open = append(open, aead)
	}

	return func(next ports.SessionStore) ports.SessionStore {
		return &encryptionMiddleware{next: next, active: active, open: open}
	}, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (m *encryptionMiddleware) Save(ctx context.Context, session *domain.Session) error {
	plain, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	nonce := make([]byte, m.active.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to read nonce: %w", err)
	}
	sealed := m.active.Seal(nonce, nonce, plain, []byte(session.ID))

	return m.next.Save(ctx, &domain.Session{
		ID:        session.ID,
		Active:    session.Active,
		CreatedAt: session.CreatedAt,
		InitialCriteria: map[string]any{
			envelopeKey: base64.StdEncoding.EncodeToString(sealed),
		},
	})
}

func (m *encryptionMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	envelope, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// A configured key means every record must be sealed.
	encoded, ok := envelope.InitialCriteria[envelopeKey].(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotEncrypted, sessionID)
	}
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plain, err := m.unseal(sealed, []byte(sessionID))
	if err != nil {
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal(plain, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted session: %w", err)
	}
	return &session, nil
}

func (m *encryptionMiddleware) unseal(sealed, ad []byte) ([]byte, error) {
	for _, aead := range m.open {
		n := aead.NonceSize()
		if len(sealed) < n {
			continue
		}
		if plain, err := aead.Open(nil, sealed[:n], sealed[n:], ad); err == nil {
			return plain, nil
		}
	}
	return nil, ErrDecrypt
}

func (m *encryptionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
