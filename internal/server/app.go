// Package server wires configuration, storage, services and the HTTP
// transport together and runs the API until it receives a stop signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/finwise/internal/logging"
	"github.com/dmitrijs2005/finwise/internal/server/auth"
	"github.com/dmitrijs2005/finwise/internal/server/config"
	"github.com/dmitrijs2005/finwise/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/finwise/internal/server/rest"
	"github.com/dmitrijs2005/finwise/internal/server/services"
	"github.com/dmitrijs2005/finwise/internal/server/storage"
)

var openDB = repomanager.Open

var newRepositoryManager = repomanager.NewPostgresRepositoryManager

var newObjectStore = func(ctx context.Context, cfg storage.S3Config) (services.ObjectStore, error) {
	s, err := storage.NewS3Store(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogBackend, c.LogLevel, c.LogFormat, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	hasher := auth.NewArgon2idHasher(auth.DefaultArgon2Params)
	issuer := auth.NewTokenIssuer([]byte(c.SecretKey), c.AccessTokenValidityDuration)
	guard := services.NewGuard(db, rm, issuer)

	deps := rest.Deps{
		Auth:         services.NewAuthService(db, rm, hasher, issuer, logger),
		Resolver:     guard,
		Users:        services.NewUserService(db, rm, hasher, logger),
		Transactions: services.NewTransactionService(db, rm, guard, logger),
		Health:       db.PingContext,
	}

	if c.ExportEnabled() {
		store, err := newObjectStore(ctx, storage.S3Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("object store init error: %w", err)
		}
		deps.Exporter = services.NewExportService(db, rm, store, logger)
		logger.Info(ctx, "statement export enabled", "bucket", c.S3Bucket)
	}

	handler := rest.NewRouter(deps, logger, rest.RouterOptions{
		AllowedOrigins: c.CORSAllowedOrigins,
		Registry:       rest.NewRegistry(),
	})

	return &App{config: c, logger: logger, db: db, handler: handler}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP until ctx is cancelled or a stop signal arrives, then
// closes the database pool.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	s := rest.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.handler, app.config.ShutdownTimeout)
	err := s.Run(ctx)

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close error", "error", cerr)
	}

	app.logger.Info(ctx, "App stopped")
	return err
}
