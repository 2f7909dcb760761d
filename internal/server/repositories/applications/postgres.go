// Package applications provides the PostgreSQL-backed repository for
// round-scoped applications.
package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/candidates/internal/common"
	"github.com/dmitrijs2005/candidates/internal/dbx"
	"github.com/dmitrijs2005/candidates/internal/server/models"
)

// PostgresRepository implements application storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectApplication = `SELECT id, account_id, round_name, cv, experience_years, send_confirmation_email, confirmed, date_created, date_updated
		 FROM applications
		 `

// Create inserts app and fills in ID and timestamps. A second application
// for the same account and round violates applications_account_round_key
// and yields common.ErrAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	query :=
		`INSERT INTO applications (account_id, round_name, cv, experience_years, send_confirmation_email, confirmed)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, date_created, date_updated
		 `

	err := r.db.QueryRowContext(ctx, query,
		app.AccountID, app.RoundName, app.CV, app.ExperienceYears, app.SendConfirmationEmail, app.Confirmed,
	).Scan(&app.ID, &app.DateCreated, &app.DateUpdated)

	if err != nil {
		if _, ok := dbx.UniqueViolation(err); ok {
			return nil, fmt.Errorf("%w: application for account %d in round %s", common.ErrAlreadyExists, app.AccountID, app.RoundName)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return app, nil
}

// Update stores domain fields and flags; round and owner never change.
func (r *PostgresRepository) Update(ctx context.Context, app *models.Application) error {
	query :=
		`UPDATE applications
		 SET cv = $1, experience_years = $2, send_confirmation_email = $3, confirmed = $4, date_updated = now()
		 WHERE id = $5
		 RETURNING date_updated
		 `

	err := r.db.QueryRowContext(ctx, query,
		app.CV, app.ExperienceYears, app.SendConfirmationEmail, app.Confirmed, app.ID,
	).Scan(&app.DateUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	return r.getOne(ctx, selectApplication+`WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByAccountRound(ctx context.Context, accountID int64, roundName string) (*models.Application, error) {
	return r.getOne(ctx, selectApplication+`WHERE account_id = $1 AND round_name = $2`, accountID, roundName)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Application, error) {
	app := &models.Application{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&app.ID, &app.AccountID, &app.RoundName, &app.CV, &app.ExperienceYears,
		&app.SendConfirmationEmail, &app.Confirmed, &app.DateCreated, &app.DateUpdated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return app, nil
}

func (r *PostgresRepository) SetConfirmed(ctx context.Context, id int64, confirmed bool) error {
	query := `UPDATE applications SET confirmed = $1, date_updated = now() WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, confirmed, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// ListByRound returns the round's applications with their owners, ordered
// by last name and first name.
func (r *PostgresRepository) ListByRound(ctx context.Context, roundName string) ([]*models.ApplicationListItem, error) {
	query :=
		`SELECT p.id, p.account_id, p.round_name, p.cv, p.experience_years, p.send_confirmation_email, p.confirmed,
		        p.date_created, p.date_updated,
		        a.id, a.first_name, a.last_name, a.email, a.username, a.is_active, a.date_joined
		 FROM applications p
		 JOIN accounts a ON a.id = p.account_id
		 WHERE p.round_name = $1
		 ORDER BY a.last_name, a.first_name, p.id
		 `

	rows, err := r.db.QueryContext(ctx, query, roundName)
	if err != nil {
		return nil, fmt.Errorf("failed to select applications: %w", err)
	}
	defer rows.Close()

	var result []*models.ApplicationListItem
	for rows.Next() {
		var item models.ApplicationListItem
		p, a := &item.Application, &item.Account
		if err := rows.Scan(
			&p.ID, &p.AccountID, &p.RoundName, &p.CV, &p.ExperienceYears, &p.SendConfirmationEmail, &p.Confirmed,
			&p.DateCreated, &p.DateUpdated,
			&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.Username, &a.IsActive, &a.DateJoined,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
