// Package httpapi serves the candidate pages: the public and private
// application form, the confirmation link, login and the staff listing.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/candidates/internal/common"
	"github.com/dmitrijs2005/candidates/internal/logging"
	"github.com/dmitrijs2005/candidates/internal/server/auth"
	"github.com/dmitrijs2005/candidates/internal/server/metrics"
	"github.com/dmitrijs2005/candidates/internal/server/models"
	"github.com/dmitrijs2005/candidates/internal/server/services"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

type Applications interface {
	Submit(ctx context.Context, req services.SubmitRequest) (*services.SubmitResult, error)
	ConfirmManually(ctx context.Context, caller *services.Caller, applicationID int64) (string, error)
}

type Confirmations interface {
	Confirm(ctx context.Context, applicationID int64, code string) (string, error)
	Status(ctx context.Context, applicationID int64) (*models.Application, error)
}

type Logins interface {
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	Caller(ctx context.Context, accountID int64) (*services.Caller, error)
}

type Listings interface {
	List(ctx context.Context, caller *services.Caller, roundName string) (*services.Listing, error)
}

type Options struct {
	Addr string

	Applications  Applications
	Confirmations Confirmations
	Logins        Logins
	Listings      Listings

	Sessions *auth.Sessions
	Metrics  *metrics.Metrics
	Logger   logging.Logger

	// RateLimit and RateBurst bound form posts per client address. A zero
	// RateLimit disables the limiter.
	RateLimit rate.Limit
	RateBurst int
}

type Server struct {
	addr   string
	router *mux.Router

	apps          Applications
	confirmations Confirmations
	logins        Logins
	listings      Listings

	sessions *auth.Sessions
	metrics  *metrics.Metrics
	logger   logging.Logger
	limiter  *RateLimiter
	pages    *pages
}

func NewServer(o Options) (*Server, error) {
	if o.Applications == nil || o.Confirmations == nil || o.Logins == nil || o.Listings == nil {
		return nil, fmt.Errorf("%w: http server needs all services", common.ErrConfiguration)
	}
	if o.Sessions == nil {
		return nil, fmt.Errorf("%w: http server needs sessions", common.ErrConfiguration)
	}
	if o.Logger == nil {
		o.Logger = logging.Nop{}
	}

	p, err := loadPages()
	if err != nil {
		return nil, err
	}

	logger := o.Logger.With("module", "http_server")
	s := &Server{
		addr:          o.Addr,
		apps:          o.Applications,
		confirmations: o.Confirmations,
		logins:        o.Logins,
		listings:      o.Listings,
		sessions:      o.Sessions,
		metrics:       o.Metrics,
		logger:        logger,
		limiter:       NewRateLimiter(o.RateLimit, o.RateBurst, logger),
		pages:         p,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.limiter.StartCleanup(ctx, time.Minute)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
