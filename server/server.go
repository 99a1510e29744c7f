package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/confagenda/internal/conference"
	"github.com/hrygo/confagenda/internal/profile"
	"github.com/hrygo/confagenda/server/internal/observability"
	apiv1 "github.com/hrygo/confagenda/server/router/api/v1"
	"github.com/hrygo/confagenda/store"
)

type Server struct {
	Profile    *profile.Profile
	Store      *store.Store
	Conference *conference.Conference

	echoServer *echo.Echo
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store, conf *conference.Conference) (*Server, error) {
	s := &Server{
		Profile:    profile,
		Store:      store,
		Conference: conf,
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.RequestID())
	s.echoServer = echoServer

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	apiV1Service := apiv1.NewAPIV1Service(profile, store, conf)
	apiV1Service.RegisterRoutes(echoServer)

	slog.Info("server initialized",
		slog.String("mode", profile.Mode),
		slog.String("driver", profile.Driver),
		slog.String("conference", conf.Name),
	)
	return s, nil
}

// SetupLogger installs the process-wide logger described by the profile.
func SetupLogger(profile *profile.Profile) {
	slog.SetDefault(observability.NewLogger(observability.LoggerConfig{
		Level: profile.LogLevel,
		File:  profile.LogFile,
		JSON:  !profile.IsDev(),
	}))
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.echoServer.Listener = listener

	slog.Info("server listening", slog.String("address", address))
	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
	slog.Info("server stopped properly")
}
