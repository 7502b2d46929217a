package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agenda/internal/database"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
)

const statePrefix = "agenda:calendar:oauth:state:"

// NewOAuthConfig returns the consent-flow configuration for the calendar scope.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{gcal.CalendarScope},
		Endpoint:     google.Endpoint,
	}
}

// StateStore keeps single-use OAuth state nonces in Redis.
type StateStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStateStore(rdb *redis.Client, ttl time.Duration) *StateStore {
	return &StateStore{rdb: rdb, ttl: ttl}
}

// Issue creates a nonce valid for the store's TTL.
func (s *StateStore) Issue(ctx context.Context) (string, error) {
	state := uuid.NewString()
	ok, err := s.rdb.SetNX(ctx, statePrefix+state, time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	if !ok {
		return "", errors.New("oauth state collision")
	}
	return state, nil
}

// Consume deletes the nonce. Unknown, expired or reused nonces yield ErrInvalidState.
func (s *StateStore) Consume(ctx context.Context, state string) error {
	if state == "" {
		return ErrInvalidState
	}
	_, err := s.rdb.GetDel(ctx, statePrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidState
	}
	if err != nil {
		return fmt.Errorf("consume oauth state: %w", err)
	}
	return nil
}

// OAuthFlow drives the consent redirect and the code exchange.
type OAuthFlow struct {
	config *oauth2.Config
	states *StateStore
	tokens TokenStore
	key    string
	logger *zerolog.Logger
}

func NewOAuthFlow(cfg *oauth2.Config, states *StateStore, tokens TokenStore, logger *zerolog.Logger) *OAuthFlow {
	return &OAuthFlow{config: cfg, states: states, tokens: tokens, key: DefaultTokenKey, logger: logger}
}

// LoginURL returns the Google consent URL with a fresh state.
func (f *OAuthFlow) LoginURL(ctx context.Context) (string, error) {
	state, err := f.states.Issue(ctx)
	if err != nil {
		return "", err
	}
	return f.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// Complete validates state, exchanges code and stores the token.
func (f *OAuthFlow) Complete(ctx context.Context, state, code string) error {
	if err := f.states.Consume(ctx, state); err != nil {
		return err
	}
	if code == "" {
		return fmt.Errorf("%w: missing authorization code", ErrAuth)
	}
	tok, err := f.config.Exchange(ctx, code)
	if err != nil {
		return classify(err)
	}
	if err := f.tokens.Save(ctx, toStored(f.key, tok)); err != nil {
		return err
	}
	f.logger.Info().Time("expiry", tok.Expiry).Bool("refresh_token", tok.RefreshToken != "").Msg("calendar authorized")
	return nil
}

// Authorized reports whether a token has been stored.
func (f *OAuthFlow) Authorized(ctx context.Context) (bool, error) {
	_, err := f.tokens.Load(ctx, f.key)
	if errors.Is(err, database.ErrTokenNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Factory returns a ClientFactory backed by the stored token.
func (f *OAuthFlow) Factory() *OAuthFactory {
	return &OAuthFactory{Config: f.config, Tokens: f.tokens, Key: f.key, Logger: f.logger}
}
