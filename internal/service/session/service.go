package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"storefront-kit/internal/domain"
	tokenrepo "storefront-kit/internal/repository/token"
)

var ErrInvalidToken = errors.New("invalid token")

// DefaultTTL is how long an issued session token stays valid.
const DefaultTTL = 30 * 24 * time.Hour

// Session is a newly issued session and the token that identifies it.
type Session struct {
	ID        string    `json:"sessionId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Service struct {
	tokens tokenrepo.Repository
	ttl    time.Duration
	now    func() time.Time
}

// New builds a session service. A nil repo keeps tokens in memory.
func New(repo tokenrepo.Repository, ttl time.Duration) *Service {
	if repo == nil {
		repo = newTokenManager()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{tokens: repo, ttl: ttl, now: time.Now}
}

func (s *Service) Issue(ctx context.Context) (Session, error) {
	token, err := randomToken()
	if err != nil {
		return Session{}, err
	}
	out := Session{
		ID:        uuid.NewString(),
		Token:     token,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.tokens.Create(ctx, tokenrepo.Token{
		Token:     out.Token,
		SessionID: out.ID,
		ExpiresAt: out.ExpiresAt,
		CreatedAt: s.now(),
	}); err != nil {
		return Session{}, err
	}
	return out, nil
}

// Lookup resolves a token to its session id. Expired tokens are removed.
func (s *Service) Lookup(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	meta, err := s.tokens.Get(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", err
	}
	if s.now().After(meta.ExpiresAt) {
		_ = s.tokens.Delete(ctx, token)
		return "", ErrInvalidToken
	}
	return meta.SessionID, nil
}

func (s *Service) Revoke(ctx context.Context, token string) error {
	err := s.tokens.Delete(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrInvalidToken
	}
	return err
}

func (s *Service) TTLSeconds() int {
	return int(s.ttl.Seconds())
}
