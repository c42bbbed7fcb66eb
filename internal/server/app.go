// Package server initializes and runs the myplanner server: it opens the
// database, applies migrations, wires the authentication flow and the
// tenant-scoped services, and runs the HTTP and gRPC boundaries plus the
// refresh token sweeper until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/myplanner/internal/dbx"
	"github.com/dmitrijs2005/myplanner/internal/logging"
	"github.com/dmitrijs2005/myplanner/internal/server/auth"
	"github.com/dmitrijs2005/myplanner/internal/server/config"
	"github.com/dmitrijs2005/myplanner/internal/server/credentials"
	"github.com/dmitrijs2005/myplanner/internal/server/ledger"
	"github.com/dmitrijs2005/myplanner/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/myplanner/internal/server/rest"
	"github.com/dmitrijs2005/myplanner/internal/server/services"
	"github.com/dmitrijs2005/myplanner/internal/server/tenancy"
	"github.com/dmitrijs2005/myplanner/internal/server/workers"
	"github.com/gin-gonic/gin"

	gs "github.com/dmitrijs2005/myplanner/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	authService *services.AuthService
	tasks       *services.TaskService
	settings    *services.SettingsService
	ledger      *ledger.Ledger
}

// Components is everything built from a config and an open database.
// plannerctl reuses it to run the same flow offline.
type Components struct {
	Auth     *services.AuthService
	Tasks    *services.TaskService
	Settings *services.SettingsService
	Ledger   *ledger.Ledger
}

// Wire builds the services on top of db. A misconfigured codec or hasher
// aborts here.
func Wire(c *config.Config, db *sql.DB, logger logging.Logger) (*Components, error) {
	codec, err := auth.NewCodec([]byte(c.SecretKey), c.Issuer, c.Audience,
		c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}

	hasher, err := credentials.NewHasher(c.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	tx := dbx.NewSQLTxRunner(db, nil)
	l := ledger.New(tx, rm, c.RefreshTokenValidityDuration)

	binder := tenancy.NewBinder(db, c.TenantRole)
	ss := services.NewSettingsService(binder, rm, c.DefaultAccentColor)
	ts := services.NewTaskService(binder, rm, logger)
	as := services.NewAuthService(tx, rm, codec, hasher, l, ss, logger)

	return &Components{Auth: as, Tasks: ts, Settings: ss, Ledger: l}, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.SlogLevel())

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := repomanager.NewPostgresRepositoryManager().RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	comp, err := Wire(c, db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		authService: comp.Auth,
		tasks:       comp.Tasks,
		settings:    comp.Settings,
		ledger:      comp.Ledger,
	}, nil
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if app.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := rest.NewServer(app.config.EndpointAddrHTTP, app.logger, rest.Deps{
		Auth:     app.authService,
		Tasks:    app.tasks,
		Settings: app.settings,
		DB:       app.db,
		Cookie:   rest.CookieOptions{Secure: app.config.CookieSecure, Path: app.config.CookiePath},
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "env", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		workers.NewTokenCleanup(app.ledger, app.config.CleanupInterval, app.logger).Run(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
