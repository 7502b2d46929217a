package main

import (
	"context"
	"fmt"
	"time"

	"agenda/internal/booking"
	"agenda/internal/calendar"
	"agenda/internal/config"
	"agenda/internal/database"
	"agenda/internal/directory"
	"agenda/internal/events"
	"agenda/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// app holds the wired services shared by the subcommands.
type app struct {
	db        *database.DB
	rdb       *redis.Client
	bus       *events.EventBus
	directory *directory.Service
	bookings  *booking.Service
	oauth     *calendar.OAuthFlow
	logger    *zerolog.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*app, error) {
	db, err := database.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.MongoTimeout(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	a := &app{db: db, logger: logger}

	if cfg.Redis.Address != "" {
		a.rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := a.rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Address).Msg("redis not reachable, continuing")
		}
	}

	a.bus = events.NewEventBus(logger)
	events.SubscribeMetrics(a.bus)
	events.SubscribeAuditLog(a.bus, logger)

	a.directory = directory.NewService(db.Professionals(), logger)
	if a.rdb != nil && cfg.CacheTTL() > 0 {
		a.directory.UseRedisCache(a.rdb, cfg.CacheTTL())
	}

	if cfg.Calendar.AuthMode == config.AuthModeOAuth && a.rdb == nil {
		logger.Warn().Msg("oauth auth mode needs redis for login state, falling back to service account")
	}
	if cfg.Calendar.AuthMode == config.AuthModeOAuth && a.rdb != nil {
		oauthCfg := calendar.NewOAuthConfig(cfg.Calendar.OAuth.ClientID, cfg.Calendar.OAuth.ClientSecret, cfg.Calendar.OAuth.RedirectURL)
		states := calendar.NewStateStore(a.rdb, cfg.OAuthStateTTL())
		a.oauth = calendar.NewOAuthFlow(oauthCfg, states, db.CalendarTokens(), logger)
	}

	// Left as a nil interface when disabled so the service skips syncing.
	var gateway booking.Calendar
	if cfg.Calendar.Enabled {
		var factory calendar.ClientFactory = &calendar.ServiceAccountFactory{CredentialsPath: cfg.Calendar.CredentialsPath}
		if a.oauth != nil {
			factory = a.oauth.Factory()
		}
		limiter := rate.NewLimiter(rate.Limit(cfg.Calendar.RequestsPerSecond), cfg.Calendar.Burst)
		gateway = calendar.NewGateway(factory, cfg.Calendar.CalendarID, cfg.Calendar.Timezone, limiter, logger)
		logger.Info().Str("auth_mode", cfg.Calendar.AuthMode).Str("calendar_id", cfg.Calendar.CalendarID).Msg("calendar sync enabled")
	}

	a.bookings = booking.NewService(db.Reservations(), a.directory, gateway, a.bus, booking.Options{
		Location:         cfg.Location(),
		DefaultDuration:  cfg.Booking.DefaultDurationMinutes,
		DefaultUnitValue: models.MoneyFromFloat(cfg.Booking.DefaultUnitValue),
	}, logger)
	return a, nil
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if err := a.db.Close(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("mongo disconnect failed")
	}
}
