package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/masomo-lessons/core"
	"github.com/trezcool/masomo-lessons/core/activity"
	"github.com/trezcool/masomo-lessons/core/lessonplan"
)

type Server struct {
	app        *echo.Echo
	address    string
	serverErrs chan error
	shutdown   chan os.Signal
}

func NewServer(
	conf *core.Config,
	logger core.Logger,
	activitySvc *activity.Service,
	directions *lessonplan.Repository,
	validate *validator.Validate,
	translator ut.Translator,
) *Server {
	s := &Server{
		app:        echo.New(),
		address:    conf.Server.Address,
		serverErrs: make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	s.app.HideBanner = conf.TestMode
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(logger, translator, s.SignalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", home(conf))

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf.SecretKey))

	registerActivityAPI(v1, jwt, activitySvc, directions, validate, translator)
	registerLessonPlanAPI(v1, jwt, directions, validate)
	return s
}

func (s *Server) Start() {
	if err := s.app.Start(s.address); err != nil && err != http.ErrServerClosed {
		s.serverErrs <- err
	}
}

func (s *Server) Errors() <-chan error { return s.serverErrs }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) SignalShutdown() { s.shutdown <- syscall.SIGTERM }

func (s *Server) Shutdown(ctx context.Context) error { return s.app.Shutdown(ctx) }

func (s *Server) Close() error { return s.app.Close() }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(conf *core.Config) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.String(http.StatusOK, "Welcome to "+conf.AppName+" API!")
	}
}
