// Package server wires and runs the candidates web application.
// It opens the database, applies migrations, builds the round, mail,
// attachment and metrics collaborators and serves the HTTP interface until
// a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/candidates/internal/logging"
	"github.com/dmitrijs2005/candidates/internal/server/attachments"
	"github.com/dmitrijs2005/candidates/internal/server/auth"
	"github.com/dmitrijs2005/candidates/internal/server/config"
	"github.com/dmitrijs2005/candidates/internal/server/forms"
	"github.com/dmitrijs2005/candidates/internal/server/httpapi"
	"github.com/dmitrijs2005/candidates/internal/server/mailer"
	"github.com/dmitrijs2005/candidates/internal/server/metrics"
	"github.com/dmitrijs2005/candidates/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/candidates/internal/server/rounds"
	"github.com/dmitrijs2005/candidates/internal/server/services"
	"golang.org/x/time/rate"
)

var (
	openDB         = repomanager.Open
	newRepoManager = repomanager.NewPostgresRepositoryManager
	logOutput      io.Writer = os.Stdout
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.Server
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(logOutput, strings.EqualFold(c.LogLevel, "debug"))
	ctx := context.Background()

	meta, err := rounds.NewStatic(c.RoundName, c.Deadline, c.ViewPermission)
	if err != nil {
		return nil, err
	}

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepoManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	srv, err := buildHTTPServer(c, db, rm, meta, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info(ctx, "application round", "round", meta.CurrentRoundName(), "deadline", meta.Deadline().Format(time.DateOnly))

	return &App{config: c, logger: logger, db: db, http: srv}, nil
}

func buildMailer(c *config.Config, logger logging.Logger) (mailer.Mailer, error) {
	if c.SMTPHost == "" {
		logger.Warn(context.Background(), "no SMTP host configured, e-mails are only logged")
		return mailer.NewLogMailer(logger), nil
	}
	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		User:     c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.MailFrom,
	}, logger)
}

func buildHTTPServer(c *config.Config, db *sql.DB, rm repomanager.RepositoryManager, meta rounds.Meta, logger logging.Logger) (*httpapi.Server, error) {
	m := metrics.New()

	mail, err := buildMailer(c, logger)
	if err != nil {
		return nil, err
	}

	deps := services.Deps{
		DB:      db,
		Repos:   rm,
		Meta:    meta,
		Mailer:  mail,
		Logger:  logger,
		Metrics: m,
		Now:     time.Now,
	}

	store := attachments.NewS3Store(attachments.S3Config{
		User:     c.S3RootUser,
		Password: c.S3RootPassword,
		Bucket:   c.S3Bucket,
		Region:   c.S3Region,
		Endpoint: c.S3BaseEndpoint,
	})
	if store.Enabled() {
		deps.Presigner = store
		deps.Supplements = forms.Supplements{attachments.Supplement(rm, store, time.Now)}
	}

	apps, err := services.NewApplicationService(deps, c)
	if err != nil {
		return nil, err
	}
	confirmations, err := services.NewConfirmationService(deps, c)
	if err != nil {
		return nil, err
	}
	logins, err := services.NewLoginService(deps)
	if err != nil {
		return nil, err
	}
	listings, err := services.NewListingService(deps)
	if err != nil {
		return nil, err
	}

	return httpapi.NewServer(httpapi.Options{
		Addr:          c.HTTPAddr,
		Applications:  apps,
		Confirmations: confirmations,
		Logins:        logins,
		Listings:      listings,
		Sessions:      auth.NewSessions([]byte(c.SecretKey), c.SessionValidityDuration, strings.HasPrefix(c.SiteURL, "https://")),
		Metrics:       m,
		Logger:        logger,
		RateLimit:     rate.Limit(c.RateLimitRPS),
		RateBurst:     c.RateLimitBurst,
	})
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
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
