package applications

import (
	"context"

	"github.com/dmitrijs2005/candidates/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, app *models.Application) (*models.Application, error)
	Update(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id int64) (*models.Application, error)
	GetByAccountRound(ctx context.Context, accountID int64, roundName string) (*models.Application, error)
	SetConfirmed(ctx context.Context, id int64, confirmed bool) error
	ListByRound(ctx context.Context, roundName string) ([]*models.ApplicationListItem, error)
}
