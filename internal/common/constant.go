// Package common contains shared constants and sentinel errors used across
// candidates components.
package common

const (
	// SessionCookieName is the cookie carrying the signed session token.
	SessionCookieName = "candidates_session"

	// PermissionChangeApplication marks staff allowed to edit any
	// applicant's application through the private interface.
	PermissionChangeApplication = "change_application"

	// PermissionViewApplication is the default permission required for the
	// round listing.
	PermissionViewApplication = "view_application"

	// MaxUsernameLength bounds generated login handles.
	MaxUsernameLength = 30
)
