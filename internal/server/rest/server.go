// Package rest is the HTTP boundary: a gin router over the authentication
// flow and the tenant-scoped task and settings services.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/myplanner/internal/logging"
	"github.com/dmitrijs2005/myplanner/internal/server/models"
	"github.com/dmitrijs2005/myplanner/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// SubjectResolver turns an access token into the subject it was issued to.
type SubjectResolver interface {
	CurrentSubject(ctx context.Context, accessToken string) (string, error)
}

// AuthAPI is the part of services.AuthService the router needs.
type AuthAPI interface {
	SubjectResolver
	Register(ctx context.Context, subject, password string) (string, error)
	Login(ctx context.Context, subject, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, subject string) (int64, error)
	AccessTTLSeconds() int64
	RefreshTTLSeconds() int
}

type TaskAPI interface {
	Create(ctx context.Context, subject string, t *models.Task) (*models.Task, error)
	Get(ctx context.Context, subject, id string) (*models.Task, error)
	List(ctx context.Context, subject string) ([]*models.Task, error)
	SetCompleted(ctx context.Context, subject, id string, completed bool) error
	Delete(ctx context.Context, subject, id string) error
}

type SettingsAPI interface {
	Get(ctx context.Context, subject string) (*models.Settings, error)
}

// Pinger reports storage health. *sql.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CookieOptions controls the refresh token cookie. Secure should only be
// off for local development over plain HTTP.
type CookieOptions struct {
	Secure bool
	Path   string
}

type Deps struct {
	Auth     AuthAPI
	Tasks    TaskAPI
	Settings SettingsAPI
	DB       Pinger
	Cookie   CookieOptions
}

type Server struct {
	address string
	engine  *gin.Engine
	logger  logging.Logger
}

func NewServer(address string, l logging.Logger, d Deps) *Server {
	logger := l.With("module", "http_server")

	if d.Cookie.Path == "" {
		d.Cookie.Path = "/auth"
	}

	engine := gin.New()
	engine.Use(RequestID(), Recovery(logger), AccessLog(logger))

	h := &handler{deps: d, logger: logger}
	h.register(engine)

	return &Server{address: address, engine: engine, logger: logger}
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "HTTP shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
