package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/candidates/internal/common"
	"github.com/dmitrijs2005/candidates/internal/dbx"
	"github.com/dmitrijs2005/candidates/internal/logging"
	"github.com/dmitrijs2005/candidates/internal/server/config"
	"github.com/dmitrijs2005/candidates/internal/server/confirmation"
	"github.com/dmitrijs2005/candidates/internal/server/forms"
	"github.com/dmitrijs2005/candidates/internal/server/mailer"
	"github.com/dmitrijs2005/candidates/internal/server/metrics"
	"github.com/dmitrijs2005/candidates/internal/server/models"
	"github.com/dmitrijs2005/candidates/internal/server/passwords"
	"github.com/dmitrijs2005/candidates/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/candidates/internal/server/rounds"
	"github.com/dmitrijs2005/candidates/internal/server/usernames"
)

// maxSaveAttempts bounds how often a submission is retried after another
// request claimed the generated username first.
const maxSaveAttempts = 3

// SubmitRequest is one GET or POST of the application page.
type SubmitRequest struct {
	// Caller is nil for anonymous visitors.
	Caller *Caller
	// Data holds the posted form values, nil on GET.
	Data url.Values
	// Clear logs the caller out and shows a blank public form.
	Clear bool
	// TargetUsername selects the private interface.
	TargetUsername string
}

// FormSet is the ordered set of forms shown on the application page.
type FormSet struct {
	Account     *forms.AccountForm
	Application *forms.ApplicationForm
	Supplements []forms.SupplementForm
}

// All lists every form in display order.
func (fs *FormSet) All() []forms.Form {
	if fs == nil {
		return nil
	}
	out := []forms.Form{fs.Account, fs.Application}
	for _, s := range fs.Supplements {
		out = append(out, s)
	}
	return out
}

// SubmitResult tells the transport what to render or where to go.
type SubmitResult struct {
	Redirect string
	Logout   bool
	// LoginAccountID is non-zero when the transport should log this account in.
	LoginAccountID int64

	Forms     *FormSet
	Saved     bool
	HasErrors bool
	Notices   []string
	Uploads   []forms.Upload

	// ShouldConfirm is set for a saved application that is waiting for a
	// manual confirmation because no e-mail went out.
	ShouldConfirm bool

	Deadline     time.Time
	PastDeadline bool

	PrivateURL string

	Application    *models.Application
	Account        *models.Account
	Interface      Interface
	Staff          bool
	TargetUsername string
	RoundName      string
}

type ApplicationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	meta        rounds.Meta
	mailer      mailer.Mailer
	supplements forms.Supplements
	secretKey   []byte
	siteURL     string
	logger      logging.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewApplicationService(d Deps, cfg *config.Config) (*ApplicationService, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	if d.Mailer == nil {
		return nil, fmt.Errorf("%w: application service needs a mailer", common.ErrConfiguration)
	}
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: secret key is empty", common.ErrConfiguration)
	}
	return &ApplicationService{
		db:          d.DB,
		repomanager: d.Repos,
		meta:        d.Meta,
		mailer:      d.Mailer,
		supplements: d.Supplements,
		secretKey:   []byte(cfg.SecretKey),
		siteURL:     strings.TrimRight(cfg.SiteURL, "/"),
		logger:      d.Logger.With("module", "applications"),
		metrics:     d.Metrics,
		now:         d.Now,
	}, nil
}

// Submit runs one pass of the application page: it resolves who is being
// edited, binds and validates the forms and saves them when everything is
// valid.
func (s *ApplicationService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	res := &SubmitResult{
		Deadline:  s.meta.Deadline(),
		RoundName: s.meta.CurrentRoundName(),
	}

	caller := req.Caller
	target := req.TargetUsername
	if req.Clear {
		res.Logout = true
		caller = nil
		target = ""
	}

	staff := caller != nil && caller.Staff
	res.Staff = staff
	res.Interface = InterfacePublic
	if target != "" {
		res.Interface = InterfacePrivate
	}

	if !staff {
		if res.Interface == InterfacePrivate {
			res.Redirect = LoginPath(target, PrivatePath(target))
			return res, nil
		}
		if rounds.PastDeadline(s.meta, s.now()) {
			res.PastDeadline = true
			return res, nil
		}
	}

	account, app, err := s.identify(ctx, caller, staff, target, res)
	if err != nil {
		return nil, err
	}
	if res.Logout {
		// the session ends here, the rest runs as an anonymous visitor
		target = ""
		staff = false
		res.Staff = false
	}
	res.TargetUsername = target

	fs, err := s.buildForms(ctx, account, app)
	if err != nil {
		return nil, err
	}

	if req.Data != nil {
		for _, f := range fs.All() {
			f.Bind(req.Data)
		}

		valid, err := validateAll(ctx, fs)
		if err != nil {
			return nil, err
		}

		var saved *saveResult
		if valid {
			saved, err = s.save(ctx, fs, staff)
			if errors.Is(err, common.ErrDuplicateApplication) {
				// another request stored this round's application first
				s.logger.Info(ctx, "application already submitted this round", "error", err)
				fs.Account.Errors().Add(forms.NonFieldKey, common.ErrDuplicateApplication.Error())
			} else if err != nil {
				return nil, err
			}
		}

		if saved != nil {
			account, app = saved.account, saved.app
			res.Saved = true
			res.Notices = saved.notices
			res.Uploads = saved.uploads
			res.LoginAccountID = saved.loginAccountID

			if staff {
				res.PrivateURL = PrivatePath(account.Username)
				if res.Interface == InterfacePrivate {
					res.Redirect = res.PrivateURL
				}
			}

			if fs, err = s.buildForms(ctx, account, app); err != nil {
				return nil, err
			}
		} else {
			res.HasErrors = true
		}
	}

	res.Forms = fs
	res.Account = account
	res.Application = app
	res.ShouldConfirm = app != nil && !app.IsNew() && !app.SendConfirmationEmail && !app.Confirmed
	if res.PrivateURL == "" && staff && !account.IsNew() {
		res.PrivateURL = PrivatePath(account.Username)
	}

	return res, nil
}

// identify picks the account and application the page edits. A nil account
// or application means a blank form.
func (s *ApplicationService) identify(ctx context.Context, caller *Caller, staff bool, target string, res *SubmitResult) (*models.Account, *models.Application, error) {
	round := s.meta.CurrentRoundName()
	accounts := s.repomanager.Accounts(s.db)
	apps := s.repomanager.Applications(s.db)

	switch {
	case target != "":
		account, err := accounts.GetByUsername(ctx, target)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, nil, fmt.Errorf("account %q: %w", target, common.ErrorNotFound)
			}
			return nil, nil, err
		}
		app, err := apps.GetByAccountRound(ctx, account.ID, round)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				s.logger.Info(ctx, "no application in current round, showing blank form", "username", target, "round", round)
				res.Logout = true
				res.Interface = InterfacePublic
				return nil, nil, nil
			}
			return nil, nil, err
		}
		return account, app, nil

	case caller != nil && !staff:
		account, err := accounts.GetByID(ctx, caller.AccountID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, nil, nil
			}
			return nil, nil, err
		}
		app, err := apps.GetByAccountRound(ctx, account.ID, round)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return account, &models.Application{AccountID: account.ID, RoundName: round}, nil
			}
			return nil, nil, err
		}
		return account, app, nil
	}

	return nil, nil, nil
}

func (s *ApplicationService) buildForms(ctx context.Context, account *models.Account, app *models.Application) (*FormSet, error) {
	if app == nil {
		app = &models.Application{RoundName: s.meta.CurrentRoundName()}
	}

	af, err := forms.NewAccountForm(account, s.meta.CurrentRoundName(), s.repomanager.Accounts(s.db))
	if err != nil {
		return nil, err
	}

	sups, err := s.supplements.Build(ctx, app)
	if err != nil {
		return nil, err
	}

	return &FormSet{
		Account:     af,
		Application: forms.NewApplicationForm(app),
		Supplements: sups,
	}, nil
}

// validateAll validates every form, even after a failure, so all errors
// are shown at once.
func validateAll(ctx context.Context, fs *FormSet) (bool, error) {
	valid := true
	for _, f := range fs.All() {
		ok, err := f.Validate(ctx)
		if err != nil {
			return false, fmt.Errorf("validate %s form: %w", f.Prefix(), err)
		}
		valid = valid && ok
	}
	return valid, nil
}

type saveResult struct {
	account        *models.Account
	app            *models.Application
	notices        []string
	uploads        []forms.Upload
	loginAccountID int64
	created        bool
}

func (s *ApplicationService) save(ctx context.Context, fs *FormSet, staff bool) (*saveResult, error) {
	var (
		res *saveResult
		err error
	)
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		res, err = s.saveOnce(ctx, fs, staff)
		if err == nil || !errors.Is(err, common.ErrUsernameTaken) {
			break
		}
		s.logger.Warn(ctx, "generated username taken concurrently, retrying", "attempt", attempt, "error", err)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ApplicationService) saveOnce(ctx context.Context, fs *FormSet, staff bool) (*saveResult, error) {
	round := s.meta.CurrentRoundName()
	res := &saveResult{}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		accounts := s.repomanager.Accounts(tx)
		apps := s.repomanager.Applications(tx)

		account := fs.Account.Account()
		created := account.IsNew()
		if created {
			username, err := usernames.Unique(ctx, account.FirstName, account.LastName, round, accounts.UsernameExists)
			if err != nil {
				return err
			}
			account.Username = username
			account.IsActive = true
			if account, err = accounts.Create(ctx, account); err != nil {
				return err
			}
		} else if err := accounts.Update(ctx, account); err != nil {
			return fmt.Errorf("update account %d: %w", account.ID, err)
		}

		app := fs.Application.Application()
		app.AccountID = account.ID
		app.RoundName = round
		newApp := app.IsNew()
		if newApp {
			app.SendConfirmationEmail = !staff
			stored, err := apps.Create(ctx, app)
			if err != nil {
				if errors.Is(err, common.ErrAlreadyExists) {
					return fmt.Errorf("%w: %v", common.ErrDuplicateApplication, err)
				}
				return err
			}
			app = stored
		} else {
			if staff {
				app.SendConfirmationEmail = false
			}
			if err := apps.Update(ctx, app); err != nil {
				return fmt.Errorf("update application %d: %w", app.ID, err)
			}
		}

		for _, sup := range fs.Supplements {
			if err := sup.Save(ctx, tx, app); err != nil {
				return fmt.Errorf("save %s form: %w", sup.Prefix(), err)
			}
			if n, ok := sup.(forms.Noticer); ok {
				res.notices = append(res.notices, n.Notices()...)
			}
			if u, ok := sup.(forms.Uploader); ok {
				res.uploads = append(res.uploads, u.Uploads()...)
			}
		}

		if app.SendConfirmationEmail {
			if err := s.sendConfirmation(ctx, tx, account, app); err != nil {
				return err
			}
			res.loginAccountID = account.ID
		}

		s.logger.Info(ctx, "application saved",
			"application_id", app.ID, "account_id", account.ID, "username", account.Username,
			"round", round, "staff", staff, "new_account", created, "new_application", newApp)

		res.account = account
		res.app = app
		res.created = newApp
		return nil
	})
	if err != nil {
		return nil, err
	}

	iface := string(InterfacePublic)
	if staff {
		iface = "staff"
	}
	s.metrics.RecordSubmission(iface, res.created)
	return res, nil
}

// sendConfirmation assigns a fresh one-time password, mails it with the
// confirmation link and clears the send flag. It runs inside the save
// transaction, so a delivery failure undoes the whole submission.
func (s *ApplicationService) sendConfirmation(ctx context.Context, tx dbx.DBTX, account *models.Account, app *models.Application) error {
	password, err := passwords.Generate()
	if err != nil {
		return fmt.Errorf("generate password: %w", err)
	}
	hash := passwords.Hash(password)
	if err := s.repomanager.Accounts(tx).SetPassword(ctx, account.ID, hash); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	account.PasswordHash = hash

	code := confirmation.Code(app.ID, account.Email, s.secretKey)
	msg, err := mailer.ConfirmationMessage(mailer.Confirmation{
		FirstName:       account.FirstName,
		LastName:        account.LastName,
		Email:           account.Email,
		Username:        account.Username,
		Password:        password,
		RoundName:       app.RoundName,
		ConfirmationURL: s.siteURL + confirmation.Path(app.ID, code),
	})
	if err != nil {
		return err
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.metrics.RecordMail(false)
		return fmt.Errorf("send confirmation e-mail: %w", err)
	}
	s.metrics.RecordMail(true)

	app.SendConfirmationEmail = false
	if err := s.repomanager.Applications(tx).Update(ctx, app); err != nil {
		return fmt.Errorf("clear confirmation flag: %w", err)
	}
	return nil
}

// ConfirmManually lets staff confirm an application without the e-mailed
// code. It returns the private page of the applicant.
func (s *ApplicationService) ConfirmManually(ctx context.Context, caller *Caller, applicationID int64) (string, error) {
	if caller == nil || !caller.Staff {
		return "", common.ErrorForbidden
	}

	apps := s.repomanager.Applications(s.db)
	app, err := apps.GetByID(ctx, applicationID)
	if err != nil {
		return "", err
	}
	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, app.AccountID)
	if err != nil {
		return "", err
	}

	if !app.Confirmed {
		if err := apps.SetConfirmed(ctx, app.ID, true); err != nil {
			return "", err
		}
		s.logger.Info(ctx, "application confirmed manually", "application_id", app.ID, "staff_account_id", caller.AccountID)
		s.metrics.RecordConfirmation("manual")
	}

	return PrivatePath(account.Username), nil
}
