// Package auth issues and reads the signed session cookie that identifies
// a logged-in account.
package auth

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/candidates/internal/common"
)

type Sessions struct {
	secretKey []byte
	validity  time.Duration
	secure    bool
}

// NewSessions returns a cookie manager. secure marks cookies HTTPS-only.
func NewSessions(secretKey []byte, validity time.Duration, secure bool) *Sessions {
	return &Sessions{secretKey: secretKey, validity: validity, secure: secure}
}

// Issue logs accountID in by setting the session cookie on w.
func (s *Sessions) Issue(w http.ResponseWriter, accountID int64) error {
	token, err := GenerateToken(accountID, s.secretKey, s.validity)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.validity.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear logs the client out.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// AccountID returns the account of a valid session cookie on r.
func (s *Sessions) AccountID(r *http.Request) (int64, bool) {
	c, err := r.Cookie(common.SessionCookieName)
	if err != nil || c.Value == "" {
		return 0, false
	}
	id, err := GetAccountIDFromToken(c.Value, s.secretKey)
	if err != nil {
		return 0, false
	}
	return id, true
}
