package calendar

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"agenda/internal/database"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// DefaultTokenKey identifies the single OAuth token used by the service.
const DefaultTokenKey = "default"

// ClientFactory builds a fresh authenticated service. The gateway asks for one per
// single call and one per bulk call, so credential changes take effect immediately.
type ClientFactory interface {
	NewService(ctx context.Context) (*gcal.Service, error)
}

// FactoryFunc adapts a function to ClientFactory.
type FactoryFunc func(ctx context.Context) (*gcal.Service, error)

func (f FactoryFunc) NewService(ctx context.Context) (*gcal.Service, error) {
	return f(ctx)
}

// ServiceAccountFactory authenticates with a service-account JSON key on disk.
type ServiceAccountFactory struct {
	CredentialsPath string
	Options         []option.ClientOption
}

func (f *ServiceAccountFactory) NewService(ctx context.Context) (*gcal.Service, error) {
	data, err := os.ReadFile(f.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrAuth, f.CredentialsPath, err)
	}
	jwtCfg, err := google.JWTConfigFromJSON(data, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	opts := append([]option.ClientOption{option.WithTokenSource(jwtCfg.TokenSource(ctx))}, f.Options...)
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	return svc, nil
}

// TokenStore persists OAuth tokens.
type TokenStore interface {
	Save(ctx context.Context, tok *database.CalendarToken) error
	Load(ctx context.Context, key string) (*database.CalendarToken, error)
}

// OAuthFactory authenticates with the token obtained through the consent flow.
// Refreshed tokens are written back to the store.
type OAuthFactory struct {
	Config  *oauth2.Config
	Tokens  TokenStore
	Key     string
	Options []option.ClientOption
	Logger  *zerolog.Logger
}

func (f *OAuthFactory) NewService(ctx context.Context) (*gcal.Service, error) {
	stored, err := f.Tokens.Load(ctx, f.Key)
	if errors.Is(err, database.ErrTokenNotFound) {
		return nil, fmt.Errorf("%w: calendar not authorized yet", ErrAuth)
	}
	if err != nil {
		return nil, err
	}

	base := f.Config.TokenSource(ctx, fromStored(stored))
	logger := f.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	ts := &persistingTokenSource{ctx: ctx, base: base, store: f.Tokens, key: f.Key, last: stored.AccessToken, logger: logger}
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, f.Options...)
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	return svc, nil
}

type persistingTokenSource struct {
	ctx   context.Context
	base  oauth2.TokenSource
	store TokenStore
	key    string
	logger *zerolog.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		// The token is still valid for this call even when it cannot be stored.
		if err := s.store.Save(s.ctx, toStored(s.key, tok)); err != nil {
			s.logger.Warn().Err(err).Str("key", s.key).Msg("refreshed calendar token not saved")
		}
	}
	return tok, nil
}

func fromStored(t *database.CalendarToken) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}
}

func toStored(key string, t *oauth2.Token) *database.CalendarToken {
	return &database.CalendarToken{
		Key:          key,
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}
}
