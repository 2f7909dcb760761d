// Package attachments stores metadata of documents uploaded with an
// application. The bytes themselves live in object storage.
package attachments

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/candidates/internal/dbx"
	"github.com/dmitrijs2005/candidates/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, att *models.Attachment) (*models.Attachment, error) {
	query :=
		`INSERT INTO application_attachments (application_id, storage_key, filename, content_type)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, date_created
		 `

	err := r.db.QueryRowContext(ctx, query, att.ApplicationID, att.StorageKey, att.Filename, att.ContentType).
		Scan(&att.ID, &att.DateCreated)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return att, nil
}

func (r *PostgresRepository) ListByApplication(ctx context.Context, applicationID int64) ([]*models.Attachment, error) {
	query :=
		`SELECT id, application_id, storage_key, filename, content_type, date_created
		 FROM application_attachments
		 WHERE application_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to select attachments: %w", err)
	}
	defer rows.Close()

	var result []*models.Attachment
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.ApplicationID, &a.StorageKey, &a.Filename, &a.ContentType, &a.DateCreated); err != nil {
			return nil, err
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
