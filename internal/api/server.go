package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"agenda/internal/booking"
	"agenda/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Directory is the professional lookup used by the handlers.
type Directory interface {
	Validate(ctx context.Context, id string) (bool, *models.Professional, error)
	Get(ctx context.Context, id string) (*models.Professional, error)
	List(ctx context.Context) ([]models.Professional, error)
	Seed(ctx context.Context, list []models.Professional) (int, error)
}

// Bookings is the reservation lifecycle used by the handlers.
type Bookings interface {
	Submit(ctx context.Context, reqs []models.ReservationRequest) (*booking.SubmitResult, error)
	Cancel(ctx context.Context, id string) (*booking.CancelResult, error)
	ListByMonth(ctx context.Context, month, year int, includeCancelled bool) ([]models.Reservation, error)
	ListByDate(ctx context.Context, date string, includeCancelled bool) ([]models.Reservation, error)
	WipeAll(ctx context.Context) (*booking.WipeResult, error)
	SeedDemo(ctx context.Context) (int, error)
}

// OAuth is the per-user calendar authorization flow.
type OAuth interface {
	LoginURL(ctx context.Context) (string, error)
	Complete(ctx context.Context, state, code string) error
	Authorized(ctx context.Context) (bool, error)
}

// Check is a readiness probe for one dependency.
type Check func(ctx context.Context) error

type Options struct {
	AllowedOrigins   []string
	AdminAPIKey      string
	RequestTimeout   time.Duration
	CalendarEnabled  bool
	CalendarAuthMode string
	CalendarID       string
	CredentialsPath  string
	Checks           map[string]Check
}

// Server is the HTTP API. oauth may be nil when the calendar uses a service account.
type Server struct {
	directory Directory
	bookings  Bookings
	oauth     OAuth
	opts      Options
	logger    *zerolog.Logger
	router    *gin.Engine
}

func NewServer(directory Directory, bookings Bookings, oauth OAuth, opts Options, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "api").Logger()
	s := &Server{
		directory: directory,
		bookings:  bookings,
		oauth:     oauth,
		opts:      opts,
		logger:    &l,
	}
	s.router = s.setupRouter()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http api listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn().Err(err).Msg("server shutdown error")
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(s.logger))
	router.Use(cors.New(corsConfig(s.opts.AllowedOrigins)))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", s.handleReady)

	api := router.Group("/api")
	api.Use(requestTimeout(s.opts.RequestTimeout))
	admin := adminOnly(s.opts.AdminAPIKey)

	api.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Hello World"})
	})

	api.POST("/validate-id", s.handleValidateID)
	api.POST("/seed-profissionais", admin, s.handleSeedProfessionals)
	api.GET("/profissionais", s.handleListProfessionals)
	api.GET("/profissionais/:id", s.handleGetProfessional)

	api.GET("/reservas", s.handleListByMonth)
	api.GET("/reservas-por-data", s.handleListByDate)
	api.GET("/reservas/export", s.handleExport)
	api.POST("/reservas", s.handleCreateReservations)
	api.DELETE("/reservas/:id", s.handleCancelReservation)
	api.DELETE("/reservas", admin, s.handleWipeReservations)
	api.POST("/seed-reservas", admin, s.handleSeedReservations)

	api.POST("/calendar/config", admin, s.handleCalendarConfig)
	api.GET("/calendar/status", s.handleCalendarStatus)
	api.GET("/calendar/oauth/login", s.handleOAuthLogin)
	api.GET("/calendar/oauth/callback", s.handleOAuthCallback)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Origin", "Accept", "X-API-Key"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true
	for name, check := range s.opts.Checks {
		if err := check(ctx); err != nil {
			ready = false
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}
	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}
