package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/candidates/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	SetPassword(ctx context.Context, id int64, passwordHash string) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	HasApplicationInRound(ctx context.Context, firstName, lastName, email, roundName string) (bool, error)
	HasPermission(ctx context.Context, id int64, permission string) (bool, error)
	GrantPermission(ctx context.Context, id int64, permission string) error
}
