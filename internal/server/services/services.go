// Package services contains the candidate workflow: submitting and editing
// applications, confirming them, logging in and listing a round.
package services

import (
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/candidates/internal/common"
	"github.com/dmitrijs2005/candidates/internal/logging"
	"github.com/dmitrijs2005/candidates/internal/server/attachments"
	"github.com/dmitrijs2005/candidates/internal/server/forms"
	"github.com/dmitrijs2005/candidates/internal/server/mailer"
	"github.com/dmitrijs2005/candidates/internal/server/metrics"
	"github.com/dmitrijs2005/candidates/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/candidates/internal/server/rounds"
)

// Deps are the collaborators shared by every service. Mailer is only
// required by ApplicationService; Supplements, Presigner, Metrics and Now
// are optional.
type Deps struct {
	DB          *sql.DB
	Repos       repomanager.RepositoryManager
	Meta        rounds.Meta
	Mailer      mailer.Mailer
	Supplements forms.Supplements
	Presigner   attachments.Presigner
	Logger      logging.Logger
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

func (d *Deps) validate() error {
	if d.DB == nil || d.Repos == nil {
		return fmt.Errorf("%w: database and repositories are required", common.ErrConfiguration)
	}
	if err := rounds.Validate(d.Meta); err != nil {
		return err
	}
	if d.Logger == nil {
		d.Logger = logging.Nop{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return nil
}

// Caller is the authenticated account making a request. Staff callers hold
// common.PermissionChangeApplication.
type Caller struct {
	AccountID int64
	Staff     bool
}

// Interface tells the public application form from the private one staff
// use to edit a named applicant.
type Interface string

const (
	InterfacePublic  Interface = "public"
	InterfacePrivate Interface = "private"
)

func ApplyPath() string { return "/apply/" }

func PrivatePath(username string) string {
	return "/apply/" + url.PathEscape(username) + "/"
}

// LoginPath builds the login URL with an optional username hint and the
// page to return to. Slashes in next stay readable.
func LoginPath(username, next string) string {
	var params []string
	if username != "" {
		params = append(params, "username="+url.QueryEscape(username))
	}
	if next != "" {
		params = append(params, "next="+strings.ReplaceAll(url.QueryEscape(next), "%2F", "/"))
	}
	if len(params) == 0 {
		return "/login/"
	}
	return "/login/?" + strings.Join(params, "&")
}

func ConfirmedPath(applicationID int64) string {
	return "/confirmed/" + strconv.FormatInt(applicationID, 10) + "/"
}

func ListingPath(roundName string) string {
	return "/applications/" + url.PathEscape(roundName) + "/"
}
