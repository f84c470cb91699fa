// Package httpapi exposes the authentication use cases over HTTP/JSON
// using echo.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/giftdesk/internal/api"
	"github.com/dmitrijs2005/giftdesk/internal/logging"
	"github.com/dmitrijs2005/giftdesk/internal/server/metrics"
	"github.com/dmitrijs2005/giftdesk/internal/server/services"
	"github.com/labstack/echo/v4"
)

// AuthService is the use-case surface the handlers depend on.
type AuthService interface {
	Identify(ctx context.Context, employeeID string) (*services.Identity, error)
	Verify(ctx context.Context, employeeID string, yearOfBirth int) (*services.IssuedSession, error)
	RequestCode(ctx context.Context, employeeID string) (*services.CodeDelivery, error)
	VerifyCode(ctx context.Context, employeeID, code string) (*services.IssuedSession, error)
	GetSession(ctx context.Context, token string) (*services.SessionInfo, error)
	Logout(ctx context.Context, token string) error
}

type Options struct {
	RateLimitRPS    float64
	RateLimitBurst  int
	ShutdownTimeout time.Duration
}

type Server struct {
	address         string
	echo            *echo.Echo
	logger          logging.Logger
	shutdownTimeout time.Duration
}

func NewServer(address string, l logging.Logger, svc AuthService, m *metrics.Metrics, opts Options) *Server {
	logger := l.With("module", "http_server")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()
	e.HTTPErrorHandler = errorHandler(logger)

	limiter := newIPLimiter(opts.RateLimitRPS, opts.RateLimitBurst)

	e.Use(recoverer(logger))
	e.Use(requestMetrics(m))

	h := &handlers{auth: svc, logger: logger}

	e.GET(api.PathPing, h.ping)
	e.GET(api.PathMetrics, echo.WrapHandler(m.Handler()))

	g := e.Group("", rateLimit(limiter, m))
	g.POST(api.PathIdentify, h.identify)
	g.POST(api.PathVerify, h.verify)
	g.POST(api.PathRequestCode, h.requestCode)
	g.POST(api.PathVerifyCode, h.verifyCode)
	g.GET(api.PathSession, h.session, requireSession(svc))
	g.POST(api.PathLogout, h.logout)

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Server{address: address, echo: e, logger: logger, shutdownTimeout: timeout}
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

// serve returns once the shutdown watcher has exited.
func (s *Server) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.echo,
		ReadHeaderTimeout: 5 * time.Second,
	}

	failed := make(chan struct{})
	stopped := make(chan error, 1)
	go func() {
		select {
		case <-ctx.Done():
		case <-failed:
			stopped <- nil
			return
		}
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		close(failed)
		<-stopped
		return err
	}
	return <-stopped
}
