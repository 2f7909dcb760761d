package models

import "time"

// Application is one submission by one Account for one round. At most one
// exists per (AccountID, RoundName).
type Application struct {
	ID        int64
	AccountID int64
	RoundName string

	// Domain fields collected by the application form.
	CV              string
	ExperienceYears int

	// SendConfirmationEmail is set for public submissions until the
	// confirmation e-mail has gone out.
	SendConfirmationEmail bool
	Confirmed             bool

	DateCreated time.Time
	DateUpdated time.Time
}

// IsNew reports whether the application has not been persisted yet.
func (a *Application) IsNew() bool {
	return a == nil || a.ID == 0
}

// ApplicationListItem joins an application with its owner for listings.
type ApplicationListItem struct {
	Application Application
	Account     Account
}
