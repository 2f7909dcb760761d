package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/candidates/internal/common"
	"github.com/dmitrijs2005/candidates/internal/dbx"
	"github.com/dmitrijs2005/candidates/internal/logging"
	"github.com/dmitrijs2005/candidates/internal/server/models"
	"github.com/dmitrijs2005/candidates/internal/server/passwords"
	"github.com/dmitrijs2005/candidates/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/candidates/internal/server/rounds"
)

type StaffRequest struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// StaffService creates the accounts that review applications.
type StaffService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	meta        rounds.Meta
	logger      logging.Logger
}

func NewStaffService(d Deps) (*StaffService, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &StaffService{
		db:          d.DB,
		repomanager: d.Repos,
		meta:        d.Meta,
		logger:      d.Logger.With("module", "staff"),
	}, nil
}

// CreateStaff registers an active account allowed to edit applications and
// to view the current round's listing.
func (s *StaffService) CreateStaff(ctx context.Context, req StaffRequest) (*models.Account, error) {
	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrConfiguration)
	}
	if len(req.Username) > common.MaxUsernameLength {
		return nil, fmt.Errorf("%w: username longer than %d characters", common.ErrConfiguration, common.MaxUsernameLength)
	}

	var account *models.Account
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		accounts := s.repomanager.Accounts(tx)

		created, err := accounts.Create(ctx, &models.Account{
			Username:     req.Username,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Email:        req.Email,
			PasswordHash: passwords.Hash(req.Password),
			IsActive:     true,
		})
		if err != nil {
			return fmt.Errorf("error creating staff account: %w", err)
		}

		for _, perm := range []string{common.PermissionChangeApplication, s.meta.ViewPermission()} {
			if err := accounts.GrantPermission(ctx, created.ID, perm); err != nil {
				return fmt.Errorf("grant %s: %w", perm, err)
			}
		}
		account = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "staff account created", "account_id", account.ID, "username", account.Username)
	return account, nil
}
