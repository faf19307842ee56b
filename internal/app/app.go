package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/MikhailRaia/tinyu/internal/auth"
	"github.com/MikhailRaia/tinyu/internal/config"
	"github.com/MikhailRaia/tinyu/internal/generator"
	"github.com/MikhailRaia/tinyu/internal/handler"
	"github.com/MikhailRaia/tinyu/internal/logger"
	"github.com/MikhailRaia/tinyu/internal/metrics"
	"github.com/MikhailRaia/tinyu/internal/middleware"
	"github.com/MikhailRaia/tinyu/internal/proto"
	"github.com/MikhailRaia/tinyu/internal/resolver"
	"github.com/MikhailRaia/tinyu/internal/service"
	"github.com/MikhailRaia/tinyu/internal/storage"
	"github.com/MikhailRaia/tinyu/internal/storage/file"
	"github.com/MikhailRaia/tinyu/internal/storage/memory"
	"github.com/MikhailRaia/tinyu/internal/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	storage    storage.Storage
	handler    http.Handler
	grpcServer *grpc.Server
}

// NewApp wires storage, services and both transports from cfg.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	links := service.NewLinkService(store, generator.New(cfg.CodeLength), service.Config{
		MaxCreateAttempts: cfg.MaxCreateAttempts,
	})
	linkResolver := resolver.NewResolver(store)
	accounts := auth.NewAccounts(store, generator.New(config.UserIDLength))
	sessions := auth.NewJWTService(cfg.SecretKey, cfg.SessionTTL)

	httpHandler := handler.NewHandler(handler.Dependencies{
		Links:    links,
		Resolver: linkResolver,
		Accounts: accounts,
		Sessions: sessions,
		Pinger:   store,
		Metrics:  metrics.NewHTTP(),
		BaseURL:  cfg.BaseURL,
	})

	grpcAuth := middleware.NewGRPCAuthMiddleware(sessions, accounts)
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		logger.UnaryServerInterceptor,
		grpcAuth.UnaryInterceptor,
	))
	proto.RegisterLinkServiceServer(grpcServer, handler.NewLinkGRPCServer(links, linkResolver, cfg.BaseURL))

	return &App{
		config:     cfg,
		storage:    store,
		handler:    httpHandler.RegisterRoutes(),
		grpcServer: grpcServer,
	}, nil
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch {
	case cfg.DatabaseDSN != "":
		log.Info().Msg("Using PostgreSQL storage")
		store, err := postgres.NewStorage(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("error initializing postgres storage: %w", err)
		}
		return store, nil
	case cfg.FileStoragePath != "":
		log.Info().Str("path", cfg.FileStoragePath).Msg("Using file storage")
		store, err := file.NewStorage(cfg.FileStoragePath)
		if err != nil {
			return nil, fmt.Errorf("error initializing file storage: %w", err)
		}
		return store, nil
	default:
		log.Info().Msg("Using in-memory storage")
		return memory.NewStorage(), nil
	}
}

// Handler returns the HTTP router.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP and gRPC until ctx is cancelled or one server fails,
// then shuts both down gracefully.
func (a *App) Run(ctx context.Context) error {
	grpcListener, err := net.Listen("tcp", a.config.GRPCAddress)
	if err != nil {
		return fmt.Errorf("error listening on %s: %w", a.config.GRPCAddress, err)
	}

	httpServer := &http.Server{
		Addr:              a.config.ServerAddress,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("address", a.config.ServerAddress).Str("baseURL", a.config.BaseURL).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info().Str("address", a.config.GRPCAddress).Msg("Starting gRPC server")
		if err := a.grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		a.grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close releases the storage.
func (a *App) Close() error {
	return a.storage.Close()
}
