package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"

	"storefront-kit/internal/domain"
	tokenrepo "storefront-kit/internal/repository/token"
)

// tokenManager is the in-memory token store used when no database is configured.
type tokenManager struct {
	mu     sync.RWMutex
	tokens map[string]tokenrepo.Token
}

func newTokenManager() *tokenManager {
	return &tokenManager{
		tokens: make(map[string]tokenrepo.Token),
	}
}

func (m *tokenManager) Create(_ context.Context, token tokenrepo.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[token.Token]; ok {
		return domain.ErrAlreadyExists
	}
	m.tokens[token.Token] = token
	return nil
}

func (m *tokenManager) Get(_ context.Context, token string) (*tokenrepo.Token, error) {
	m.mu.RLock()
	meta, ok := m.tokens[token]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &meta, nil
}

func (m *tokenManager) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[token]; !ok {
		return domain.ErrNotFound
	}
	delete(m.tokens, token)
	return nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
