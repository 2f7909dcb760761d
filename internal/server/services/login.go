package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/candidates/internal/common"
	"github.com/dmitrijs2005/candidates/internal/logging"
	"github.com/dmitrijs2005/candidates/internal/server/metrics"
	"github.com/dmitrijs2005/candidates/internal/server/passwords"
	"github.com/dmitrijs2005/candidates/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/candidates/internal/server/rounds"
)

type LoginResult struct {
	AccountID int64
	Staff     bool
	Redirect  string
}

// LoginService checks credentials and resolves session accounts into
// callers.
type LoginService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	meta        rounds.Meta
	logger      logging.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewLoginService(d Deps) (*LoginService, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &LoginService{
		db:          d.DB,
		repomanager: d.Repos,
		meta:        d.Meta,
		logger:      d.Logger.With("module", "login"),
		metrics:     d.Metrics,
		now:         d.Now,
	}, nil
}

// Login verifies the credentials and decides where to send the account.
// Logging in confirms a pending application of the current round. Any
// credential problem yields common.ErrorUnauthorized.
func (s *LoginService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	accounts := s.repomanager.Accounts(s.db)

	account, err := accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.metrics.RecordLogin("failed")
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	if !account.IsActive || account.PasswordHash == "" || !passwords.Verify(account.PasswordHash, password) {
		s.logger.Info(ctx, "login rejected", "username", username)
		s.metrics.RecordLogin("failed")
		return nil, common.ErrorUnauthorized
	}

	if err := accounts.TouchLastLogin(ctx, account.ID, s.now()); err != nil {
		return nil, err
	}
	s.metrics.RecordLogin("ok")

	staff, err := accounts.HasPermission(ctx, account.ID, common.PermissionChangeApplication)
	if err != nil {
		return nil, err
	}
	res := &LoginResult{AccountID: account.ID, Staff: staff}
	if staff {
		res.Redirect = ListingPath(s.meta.CurrentRoundName())
		return res, nil
	}

	apps := s.repomanager.Applications(s.db)
	app, err := apps.GetByAccountRound(ctx, account.ID, s.meta.CurrentRoundName())
	switch {
	case errors.Is(err, common.ErrorNotFound):
		res.Redirect = ApplyPath()
	case err != nil:
		return nil, err
	case app.Confirmed:
		res.Redirect = ApplyPath()
	default:
		if err := apps.SetConfirmed(ctx, app.ID, true); err != nil {
			return nil, err
		}
		s.logger.Info(ctx, "application confirmed by login", "application_id", app.ID)
		s.metrics.RecordConfirmation("login")
		res.Redirect = ConfirmedPath(app.ID)
	}
	return res, nil
}

// Caller turns a session account id into a Caller. Unknown or inactive
// accounts yield nil so the request continues anonymously.
func (s *LoginService) Caller(ctx context.Context, accountID int64) (*Caller, error) {
	accounts := s.repomanager.Accounts(s.db)

	account, err := accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !account.IsActive {
		return nil, nil
	}

	staff, err := accounts.HasPermission(ctx, account.ID, common.PermissionChangeApplication)
	if err != nil {
		return nil, err
	}
	return &Caller{AccountID: account.ID, Staff: staff}, nil
}
