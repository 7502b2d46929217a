package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"agenda/internal/database"
	"agenda/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cachePrefix = "agenda:professional:"

var (
	ErrInvalidAmount       = errors.New("credit amount must be positive")
	ErrInvalidProfessional = errors.New("invalid professional")
)

// Store is the persistence the directory needs.
type Store interface {
	FindByID(ctx context.Context, id string) (*models.Professional, error)
	List(ctx context.Context) ([]models.Professional, error)
	ReplaceAll(ctx context.Context, list []models.Professional) (int, error)
	AddCredit(ctx context.Context, id string, amount models.Money) (models.Money, error)
}

// Service looks up, seeds and credits professionals.
type Service struct {
	store  Store
	logger *zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

func NewService(store Store, logger *zerolog.Logger) *Service {
	l := logger.With().Str("component", "directory").Logger()
	return &Service{store: store, logger: &l}
}

// UseRedisCache configures optional Redis caching of lookups.
func (s *Service) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	s.redis = redisClient
	s.cacheTTL = ttl
}

// Validate looks up id after trimming and upper-casing it.
// An unknown id is reported with found=false and a nil error.
func (s *Service) Validate(ctx context.Context, id string) (bool, *models.Professional, error) {
	id = models.NormalizeProfessionalID(id)
	if id == "" {
		return false, nil, nil
	}

	var cached models.Professional
	if s.readCache(ctx, cachePrefix+id, &cached) {
		return true, &cached, nil
	}

	p, err := s.store.FindByID(ctx, id)
	if errors.Is(err, database.ErrProfessionalNotFound) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	s.writeCache(ctx, cachePrefix+id, p)
	return true, p, nil
}

// Get returns the professional with its current credit, bypassing the cache.
func (s *Service) Get(ctx context.Context, id string) (*models.Professional, error) {
	return s.store.FindByID(ctx, models.NormalizeProfessionalID(id))
}

// List returns every professional ordered by id.
func (s *Service) List(ctx context.Context) ([]models.Professional, error) {
	return s.store.List(ctx)
}

// Seed replaces the whole directory. An empty list seeds the default professionals.
func (s *Service) Seed(ctx context.Context, list []models.Professional) (int, error) {
	if len(list) == 0 {
		list = models.DefaultProfessionals()
	}

	seen := make(map[string]bool, len(list))
	normalized := make([]models.Professional, 0, len(list))
	for i, p := range list {
		p.ID = models.NormalizeProfessionalID(p.ID)
		p.Name = strings.TrimSpace(p.Name)
		if p.ID == "" || p.Name == "" {
			return 0, fmt.Errorf("%w: item %d needs id_profissional and nome", ErrInvalidProfessional, i)
		}
		if seen[p.ID] {
			return 0, fmt.Errorf("%w: duplicate id_profissional %s", ErrInvalidProfessional, p.ID)
		}
		if p.Credit < 0 {
			return 0, fmt.Errorf("%w: negative credito for %s", ErrInvalidProfessional, p.ID)
		}
		seen[p.ID] = true
		normalized = append(normalized, p)
	}

	n, err := s.store.ReplaceAll(ctx, normalized)
	if err != nil {
		return 0, err
	}
	s.invalidateAll(ctx)
	s.logger.Info().Int("count", n).Msg("professional directory seeded")
	return n, nil
}

// Credit adds amount to the professional's balance and returns the new balance.
func (s *Service) Credit(ctx context.Context, id string, amount models.Money) (models.Money, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	id = models.NormalizeProfessionalID(id)
	balance, err := s.store.AddCredit(ctx, id, amount)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, cachePrefix+id)
	s.logger.Info().Str("id_profissional", id).Str("amount", amount.String()).Str("balance", balance.String()).Msg("credit granted")
	return balance, nil
}

func (s *Service) readCache(ctx context.Context, key string, out any) bool {
	if s.redis == nil || s.cacheTTL <= 0 {
		return false
	}
	val, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (s *Service) writeCache(ctx context.Context, key string, val any) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if s.redis == nil || len(keys) == 0 {
		return
	}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("cache invalidation failed")
	}
}

func (s *Service) invalidateAll(ctx context.Context) {
	if s.redis == nil {
		return
	}
	var keys []string
	iter := s.redis.Scan(ctx, 0, cachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("cache scan failed")
		return
	}
	s.invalidate(ctx, keys...)
}
