package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/referral-api/internal/handler"
	"github.com/noah-isme/referral-api/internal/repository"
	"github.com/noah-isme/referral-api/internal/service"
	"github.com/noah-isme/referral-api/pkg/cache"
	"github.com/noah-isme/referral-api/pkg/config"
	"github.com/noah-isme/referral-api/pkg/database"
	"github.com/noah-isme/referral-api/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

// Server owns the HTTP listener and the connections behind it.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sqlx.DB
	redis  *redis.Client
	http   *http.Server
}

// New connects to Postgres (and Redis when caching is enabled), applies
// migrations if configured, and wires every component.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Server, error) {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		applied, err := database.NewMigrator(db, log).Up(ctx)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		log.Info("migrations applied", zap.Int("count", applied))
	}

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, referral cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	store, mediaDir, err := newObjectStore(cfg.Storage)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	admins := repository.NewAdminRepository(db)
	colleges := repository.NewCollegeRepository(db)
	schools := repository.NewSchoolRepository(db)
	audit := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, "referrals")

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.ReferralsTTL, log, cacheRepo.Enabled())
	referralSvc := service.NewReferralService(colleges, schools, audit, cacheSvc, metrics, log)
	authSvc := service.NewAuthService(admins, colleges, schools, audit, referralSvc, metrics, validate, log, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})
	mediaSvc := service.NewMediaService(schools, colleges, store, audit, metrics, log, service.MediaConfig{
		KeyPrefix:      cfg.Storage.KeyPrefix,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	})
	exportSvc := service.NewExportService(referralSvc, nil, nil, log)

	router := NewRouter(cfg, log, Handlers{
		Admin:   handler.NewAdminHandler(authSvc, referralSvc, exportSvc),
		College: handler.NewCollegeHandler(authSvc, referralSvc, mediaSvc, cfg.Storage.MaxUploadBytes),
		School:  handler.NewSchoolHandler(authSvc, referralSvc),
		Ops:     handler.NewMetricsHandler(metrics, db),
	}, RouterOptions{
		Tokens:   authSvc,
		Metrics:  metrics,
		MediaDir: mediaDir,
	})

	return &Server{
		cfg:    cfg,
		logger: log,
		db:     db,
		redis:  redisClient,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}, nil
}

// newObjectStore returns the configured store and, for the local driver, the
// directory to serve under /media.
func newObjectStore(cfg config.StorageConfig) (storage.ObjectStore, string, error) {
	switch cfg.Driver {
	case config.StorageDriverOSS:
		store, err := storage.NewOSSStorage(cfg)
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	default:
		store, err := storage.NewLocalStorage(cfg.LocalDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, "", err
		}
		return store, store.Dir(), nil
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.http.Addr), zap.String("env", s.cfg.Env))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.http.Shutdown(shutdownCtx)
	s.close()
	if err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if err := s.db.Close(); err != nil {
		s.logger.Warn("database close failed", zap.Error(err))
	}
}
