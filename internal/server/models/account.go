// Package models defines server-side data models persisted in the database.
package models

import (
	"fmt"
	"time"
)

// Account is a person who may submit applications. Username is unique and
// PasswordHash stays empty until the confirmation e-mail assigns a one-time
// password.
type Account struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	Username     string
	PasswordHash string
	IsActive     bool
	DateJoined   time.Time
	LastLogin    *time.Time
}

// IsNew reports whether the account has not been persisted yet.
func (a *Account) IsNew() bool {
	return a == nil || a.ID == 0
}

// DisplayName renders "Last, First" the way staff listings show applicants.
func (a *Account) DisplayName() string {
	return fmt.Sprintf("%s, %s", a.LastName, a.FirstName)
}
