// Package server initializes and runs the attendance ledger server.
// It selects the document store backend, bootstraps the first admin account,
// prunes expired attendance documents and starts the HTTP API with graceful
// shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mkarpovs/crewtally/internal/logging"
	"github.com/mkarpovs/crewtally/internal/server/areas"
	"github.com/mkarpovs/crewtally/internal/server/backup"
	"github.com/mkarpovs/crewtally/internal/server/config"
	"github.com/mkarpovs/crewtally/internal/server/designations"
	"github.com/mkarpovs/crewtally/internal/server/docstore"
	"github.com/mkarpovs/crewtally/internal/server/httpapi"
	"github.com/mkarpovs/crewtally/internal/server/ledger"
	"github.com/mkarpovs/crewtally/internal/server/models"
	"github.com/mkarpovs/crewtally/internal/server/session"
	"github.com/mkarpovs/crewtally/internal/server/users"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	store    docstore.Store
	users    *users.Service
	sessions *session.Manager
	ledger   *ledger.Service
	http     *httpapi.Server
}

func newStore(cfg *config.Config) (docstore.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		return docstore.NewPostgresStore(cfg.DatabaseDSN)
	case config.BackendFile:
		return docstore.NewFileStore(cfg.DataDir)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
}

func NewApp(cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	store, err := newStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	us := users.NewService(store)
	sm := session.NewManager(store, us, cfg.SessionDuration, cfg.LockoutDuration)
	idx := designations.NewIndex(store)
	ls := ledger.NewService(store, sm, idx)
	as := areas.NewService(store, us, ls, idx)
	bs := backup.NewService(store)

	s3 := backup.S3Options{
		RootUser:     cfg.S3RootUser,
		RootPassword: cfg.S3RootPassword,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
	}

	hs := httpapi.NewServer(cfg.EndpointAddrHTTP, logger, store, sm, us, as, ls, idx, bs,
		s3, cfg.SecretKey, cfg.AccessTokenValidityDuration)

	return &App{
		config:   cfg,
		logger:   logger,
		store:    store,
		users:    us,
		sessions: sm,
		ledger:   ls,
		http:     hs,
	}, nil
}

// bootstrapAdmin creates the first admin account on an empty user registry.
// The generated password is printed to the log exactly once; it is not
// stored in recoverable form.
func (app *App) bootstrapAdmin(ctx context.Context) error {
	hasAny, err := app.users.HasAny(ctx)
	if err != nil {
		return err
	}
	if hasAny {
		return nil
	}

	password, err := users.GenerateTemporaryPassword(users.TempPasswordLength)
	if err != nil {
		return err
	}

	if _, err := app.users.CreateFirstAdmin(ctx, "admin", password); err != nil {
		return err
	}

	app.logger.Warn(ctx, "Created initial admin account, change the password after first login",
		"username", "admin", "password", password)
	return nil
}

// pruneExpiredDates drops attendance documents older than the configured
// retention window. Runs once at startup; restarts are frequent enough on
// site hardware that a background ticker is not worth the moving parts.
func (app *App) pruneExpiredDates(ctx context.Context) {
	settings := models.DefaultSettings()
	if _, err := app.store.Get(ctx, docstore.KeySettings, settings); err != nil {
		app.logger.Error(ctx, "settings read error", "error", err)
		return
	}

	pruned, err := app.ledger.PruneOldDates(ctx, settings.RetentionDays)
	if err != nil {
		app.logger.Error(ctx, "retention prune error", "error", err)
		return
	}
	if pruned > 0 {
		app.logger.Info(ctx, "Pruned expired attendance dates", "count", pruned)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	if err := app.bootstrapAdmin(ctx); err != nil {
		app.logger.Error(ctx, "admin bootstrap error", "error", err)
		cancelFunc()
		return
	}

	app.pruneExpiredDates(ctx)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
}
