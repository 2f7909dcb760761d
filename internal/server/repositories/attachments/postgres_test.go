package attachments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/candidates/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO application_attachments`).
		WithArgs(int64(9), "applications/2010/k", "cv.pdf", "application/pdf").
		WillReturnRows(sqlmock.NewRows([]string{"id", "date_created"}).AddRow(int64(1), now))
	mock.ExpectQuery(`FROM application_attachments`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "application_id", "storage_key", "filename", "content_type", "date_created"}).
			AddRow(int64(1), int64(9), "applications/2010/k", "cv.pdf", "application/pdf", now))

	att, err := repo.Create(context.Background(), &models.Attachment{
		ApplicationID: 9, StorageKey: "applications/2010/k", Filename: "cv.pdf", ContentType: "application/pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), att.ID)

	list, err := repo.ListByApplication(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "cv.pdf", list[0].Filename)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO application_attachments`).WillReturnError(errors.New("db down"))

	_, err = NewPostgresRepository(db).Create(context.Background(), &models.Attachment{})
	assert.ErrorContains(t, err, "db down")
}
