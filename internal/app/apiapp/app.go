package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chronon/photochron/internal/config"
	"github.com/chronon/photochron/internal/infra/httpclient"
	imagesinfra "github.com/chronon/photochron/internal/infra/images"
	s3infra "github.com/chronon/photochron/internal/infra/s3"
	pgrepo "github.com/chronon/photochron/internal/repo/postgres"
	redrepo "github.com/chronon/photochron/internal/repo/redis"
	accesssvc "github.com/chronon/photochron/internal/services/access"
	mediasvc "github.com/chronon/photochron/internal/services/media"
	tenantsvc "github.com/chronon/photochron/internal/services/tenant"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres init: %w", err)
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	directory := tenantsvc.NewCachedDirectory(redrepo.NewDirectoryRepo(redisClient), cfg.Tenant.CacheTTL)
	resolver := tenantsvc.NewResolver(directory, cfg.Tenant.DevUser)
	extractor := accesssvc.NewExtractor(cfg.Access.ExpectedIssuer)
	gate := accesssvc.NewGate(directory, cfg.Access.DevClientID)

	blobs, err := newBlobStore(cfg)
	if err != nil {
		return nil, err
	}

	mediaService := mediasvc.NewService(pgrepo.NewImageRepo(pool), blobs, log)

	RegisterRoutes(r, Dependencies{
		TenantResolver: resolver,
		Extractor:      extractor,
		Gate:           gate,
		MediaService:   mediaService,
		Logger:         log,
		Config:         cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
	}, nil
}

func newBlobStore(cfg config.Config) (mediasvc.BlobStore, error) {
	switch cfg.Images.Provider {
	case config.ProviderS3:
		storage, err := s3infra.NewStorage(s3infra.Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 storage init: %w", err)
		}
		return storage, nil
	case config.ProviderImagesAPI:
		client, err := imagesinfra.NewClient(imagesinfra.Config{
			BaseURL:   cfg.Images.BaseURL,
			AccountID: cfg.Images.AccountID,
			Token:     cfg.Images.Token,
		}, httpclient.New(cfg.Images.RequestTimeout))
		if err != nil {
			return nil, fmt.Errorf("images client init: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown images provider %q", cfg.Images.Provider)
	}
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
