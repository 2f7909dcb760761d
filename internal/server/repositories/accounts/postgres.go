// Package accounts provides the PostgreSQL-backed account repository,
// including the permission lookups used to tell staff from applicants.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/candidates/internal/common"
	"github.com/dmitrijs2005/candidates/internal/dbx"
	"github.com/dmitrijs2005/candidates/internal/server/models"
)

// PostgresRepository implements account storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectAccount = `SELECT id, first_name, last_name, email, username, password_hash, is_active, date_joined, last_login
		 FROM accounts
		 `

// Create inserts the account and fills in ID and DateJoined. A clash on the
// username constraint yields common.ErrUsernameTaken so callers can probe
// for the next free handle.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (first_name, last_name, email, username, password_hash, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, date_joined
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.FirstName, account.LastName, account.Email, account.Username, account.PasswordHash, account.IsActive,
	).Scan(&account.ID, &account.DateJoined)

	if err != nil {
		if _, ok := dbx.UniqueViolation(err); ok {
			return nil, fmt.Errorf("%w: %s", common.ErrUsernameTaken, account.Username)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

// Update stores the editable personal fields of an existing account.
func (r *PostgresRepository) Update(ctx context.Context, account *models.Account) error {
	query :=
		`UPDATE accounts SET first_name = $1, last_name = $2, email = $3, is_active = $4
		 WHERE id = $5
		 `

	res, err := r.db.ExecContext(ctx, query,
		account.FirstName, account.LastName, account.Email, account.IsActive, account.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	return r.getOne(ctx, selectAccount+`WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.getOne(ctx, selectAccount+`WHERE username = $1`, username)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	account := &models.Account{}
	var lastLogin sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID, &account.FirstName, &account.LastName, &account.Email, &account.Username,
		&account.PasswordHash, &account.IsActive, &account.DateJoined, &lastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lastLogin.Valid {
		t := lastLogin.Time
		account.LastLogin = &t
	}
	return account, nil
}

func (r *PostgresRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) SetPassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE accounts SET password_hash = $1 WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE accounts SET last_login = $1 WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

// HasApplicationInRound reports whether an account with the same name and
// e-mail (compared case-insensitively) already applied in roundName.
func (r *PostgresRepository) HasApplicationInRound(ctx context.Context, firstName, lastName, email, roundName string) (bool, error) {
	query :=
		`SELECT EXISTS (
		   SELECT 1 FROM accounts a
		   JOIN applications p ON p.account_id = a.id
		   WHERE lower(a.first_name) = lower($1)
		     AND lower(a.last_name) = lower($2)
		     AND lower(a.email) = lower($3)
		     AND p.round_name = $4
		 )`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, firstName, lastName, email, roundName).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) HasPermission(ctx context.Context, id int64, permission string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM account_permissions WHERE account_id = $1 AND permission = $2)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, id, permission).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) GrantPermission(ctx context.Context, id int64, permission string) error {
	query :=
		`INSERT INTO account_permissions (account_id, permission)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING
		 `

	if _, err := r.db.ExecContext(ctx, query, id, permission); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
