package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/candidates/internal/common"
	"github.com/dmitrijs2005/candidates/internal/logging"
	"github.com/dmitrijs2005/candidates/internal/server/config"
	"github.com/dmitrijs2005/candidates/internal/server/confirmation"
	"github.com/dmitrijs2005/candidates/internal/server/metrics"
	"github.com/dmitrijs2005/candidates/internal/server/models"
	"github.com/dmitrijs2005/candidates/internal/server/repositories/repomanager"
)

// ConfirmationService handles the link mailed to new applicants.
type ConfirmationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	secretKey   []byte
	logger      logging.Logger
	metrics     *metrics.Metrics
}

func NewConfirmationService(d Deps, cfg *config.Config) (*ConfirmationService, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: secret key is empty", common.ErrConfiguration)
	}
	return &ConfirmationService{
		db:          d.DB,
		repomanager: d.Repos,
		secretKey:   []byte(cfg.SecretKey),
		logger:      d.Logger.With("module", "confirmation"),
		metrics:     d.Metrics,
	}, nil
}

// Confirm marks the application confirmed when code matches. The result
// page is the same whether or not it did, so the redirect never tells a
// guesser anything. Unknown ids yield common.ErrorNotFound.
func (s *ConfirmationService) Confirm(ctx context.Context, applicationID int64, code string) (string, error) {
	apps := s.repomanager.Applications(s.db)

	app, err := apps.GetByID(ctx, applicationID)
	if err != nil {
		return "", err
	}
	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, app.AccountID)
	if err != nil {
		return "", err
	}

	switch {
	case !confirmation.Verify(app.ID, account.Email, s.secretKey, code):
		s.logger.Warn(ctx, "confirmation code mismatch", "application_id", app.ID)
		s.metrics.RecordConfirmation("invalid")
	case app.Confirmed:
		s.metrics.RecordConfirmation("already_confirmed")
	default:
		if err := apps.SetConfirmed(ctx, app.ID, true); err != nil {
			return "", err
		}
		s.logger.Info(ctx, "application confirmed", "application_id", app.ID)
		s.metrics.RecordConfirmation("confirmed")
	}

	return ConfirmedPath(app.ID), nil
}

// Status loads the application shown on the confirmation result page.
func (s *ConfirmationService) Status(ctx context.Context, applicationID int64) (*models.Application, error) {
	return s.repomanager.Applications(s.db).GetByID(ctx, applicationID)
}
