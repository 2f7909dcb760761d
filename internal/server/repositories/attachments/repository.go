package attachments

import (
	"context"

	"github.com/dmitrijs2005/candidates/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, att *models.Attachment) (*models.Attachment, error)
	ListByApplication(ctx context.Context, applicationID int64) ([]*models.Attachment, error)
}
