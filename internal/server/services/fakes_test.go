package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/candidates/internal/common"
	"github.com/dmitrijs2005/candidates/internal/dbx"
	"github.com/dmitrijs2005/candidates/internal/server/config"
	"github.com/dmitrijs2005/candidates/internal/server/mailer"
	"github.com/dmitrijs2005/candidates/internal/server/models"
	accountsrepo "github.com/dmitrijs2005/candidates/internal/server/repositories/accounts"
	applicationsrepo "github.com/dmitrijs2005/candidates/internal/server/repositories/applications"
	attachmentsrepo "github.com/dmitrijs2005/candidates/internal/server/repositories/attachments"
	"github.com/dmitrijs2005/candidates/internal/server/rounds"
)

// --- in-memory store behind the repository interfaces ---

type memStore struct {
	mu sync.Mutex

	accounts    map[int64]*models.Account
	apps        map[int64]*models.Application
	perms       map[int64]map[string]bool
	attachments []*models.Attachment

	nextAccountID int64
	nextAppID     int64

	// createAccountErrs is consumed one error per Accounts.Create call.
	createAccountErrs []error
	// createAppErrs is consumed one error per Applications.Create call.
	createAppErrs []error
	hasPermErr        error
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[int64]*models.Account{},
		apps:     map[int64]*models.Application{},
		perms:    map[int64]map[string]bool{},
	}
}

func (st *memStore) addAccount(a models.Account) *models.Account {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.nextAccountID++
	a.ID = st.nextAccountID
	st.accounts[a.ID] = &a
	c := a
	return &c
}

func (st *memStore) addApp(a models.Application) *models.Application {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.nextAppID++
	a.ID = st.nextAppID
	st.apps[a.ID] = &a
	c := a
	return &c
}

func (st *memStore) grant(id int64, perms ...string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.perms[id] == nil {
		st.perms[id] = map[string]bool{}
	}
	for _, p := range perms {
		st.perms[id][p] = true
	}
}

func (st *memStore) app(id int64) models.Application {
	st.mu.Lock()
	defer st.mu.Unlock()
	return *st.apps[id]
}

func (st *memStore) account(id int64) models.Account {
	st.mu.Lock()
	defer st.mu.Unlock()
	return *st.accounts[id]
}

type memAccounts struct{ st *memStore }

func (r memAccounts) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	st := r.st
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.createAccountErrs) > 0 {
		err := st.createAccountErrs[0]
		st.createAccountErrs = st.createAccountErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	for _, existing := range st.accounts {
		if existing.Username == a.Username {
			return nil, fmt.Errorf("%w: %s", common.ErrUsernameTaken, a.Username)
		}
	}
	st.nextAccountID++
	c := *a
	c.ID = st.nextAccountID
	c.DateJoined = time.Now()
	st.accounts[c.ID] = &c
	out := c
	return &out, nil
}

func (r memAccounts) Update(_ context.Context, a *models.Account) error {
	st := r.st
	st.mu.Lock()
	defer st.mu.Unlock()
	existing, ok := st.accounts[a.ID]
	if !ok {
		return common.ErrorNotFound
	}
	existing.FirstName, existing.LastName, existing.Email, existing.IsActive = a.FirstName, a.LastName, a.Email, a.IsActive
	return nil
}

func (r memAccounts) GetByID(_ context.Context, id int64) (*models.Account, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	a, ok := r.st.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *a
	return &c, nil
}

func (r memAccounts) GetByUsername(_ context.Context, username string) (*models.Account, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, a := range r.st.accounts {
		if a.Username == username {
			c := *a
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memAccounts) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	if err == common.ErrorNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r memAccounts) SetPassword(_ context.Context, id int64, hash string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	a, ok := r.st.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (r memAccounts) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	a, ok := r.st.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.LastLogin = &at
	return nil
}

func (r memAccounts) HasApplicationInRound(_ context.Context, first, last, email, round string) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, app := range r.st.apps {
		a := r.st.accounts[app.AccountID]
		if app.RoundName == round && strings.EqualFold(a.FirstName, first) &&
			strings.EqualFold(a.LastName, last) && strings.EqualFold(a.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r memAccounts) HasPermission(_ context.Context, id int64, perm string) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.hasPermErr != nil {
		return false, r.st.hasPermErr
	}
	return r.st.perms[id][perm], nil
}

func (r memAccounts) GrantPermission(_ context.Context, id int64, perm string) error {
	r.st.grant(id, perm)
	return nil
}

type memApps struct{ st *memStore }

func (r memApps) Create(_ context.Context, app *models.Application) (*models.Application, error) {
	st := r.st
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.createAppErrs) > 0 {
		err := st.createAppErrs[0]
		st.createAppErrs = st.createAppErrs[1:]
		return nil, err
	}
	for _, existing := range st.apps {
		if existing.AccountID == app.AccountID && existing.RoundName == app.RoundName {
			return nil, common.ErrAlreadyExists
		}
	}
	st.nextAppID++
	c := *app
	c.ID = st.nextAppID
	c.DateCreated = time.Now()
	c.DateUpdated = c.DateCreated
	st.apps[c.ID] = &c
	out := c
	return &out, nil
}

func (r memApps) Update(_ context.Context, app *models.Application) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.apps[app.ID]; !ok {
		return common.ErrorNotFound
	}
	c := *app
	c.DateUpdated = time.Now()
	r.st.apps[app.ID] = &c
	app.DateUpdated = c.DateUpdated
	return nil
}

func (r memApps) GetByID(_ context.Context, id int64) (*models.Application, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	a, ok := r.st.apps[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *a
	return &c, nil
}

func (r memApps) GetByAccountRound(_ context.Context, accountID int64, round string) (*models.Application, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, a := range r.st.apps {
		if a.AccountID == accountID && a.RoundName == round {
			c := *a
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memApps) SetConfirmed(_ context.Context, id int64, confirmed bool) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	a, ok := r.st.apps[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.Confirmed = confirmed
	return nil
}

func (r memApps) ListByRound(_ context.Context, round string) ([]*models.ApplicationListItem, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []*models.ApplicationListItem
	for _, a := range r.st.apps {
		if a.RoundName == round {
			out = append(out, &models.ApplicationListItem{Application: *a, Account: *r.st.accounts[a.AccountID]})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Account.LastName != out[j].Account.LastName {
			return out[i].Account.LastName < out[j].Account.LastName
		}
		return out[i].Account.FirstName < out[j].Account.FirstName
	})
	return out, nil
}

type memAttachments struct{ st *memStore }

func (r memAttachments) Create(_ context.Context, att *models.Attachment) (*models.Attachment, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	c := *att
	c.ID = int64(len(r.st.attachments) + 1)
	r.st.attachments = append(r.st.attachments, &c)
	return &c, nil
}

func (r memAttachments) ListByApplication(_ context.Context, id int64) ([]*models.Attachment, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []*models.Attachment
	for _, a := range r.st.attachments {
		if a.ApplicationID == id {
			out = append(out, a)
		}
	}
	return out, nil
}

type memRepoManager struct{ st *memStore }

func (m memRepoManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m memRepoManager) Accounts(dbx.DBTX) accountsrepo.Repository {
	return memAccounts{m.st}
}

func (m memRepoManager) Applications(dbx.DBTX) applicationsrepo.Repository {
	return memApps{m.st}
}

func (m memRepoManager) Attachments(dbx.DBTX) attachmentsrepo.Repository {
	return memAttachments{m.st}
}

// --- collaborators ---

type fakeMailer struct {
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// --- helpers ---

var (
	testDeadline = time.Date(2010, 3, 31, 0, 0, 0, 0, time.UTC)
	beforeDL     = func() time.Time { return time.Date(2010, 3, 1, 10, 0, 0, 0, time.UTC) }
	afterDL      = func() time.Time { return time.Date(2010, 4, 2, 10, 0, 0, 0, time.UTC) }
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{SecretKey: "secretKey", SiteURL: "http://testserver/"}
}

func testMeta(round string) *rounds.Static {
	return &rounds.Static{RoundName: round, DeadlineAt: testDeadline, Permission: common.PermissionViewApplication}
}

type fixture struct {
	st     *memStore
	db     *sql.DB
	mock   sqlmock.Sqlmock
	mailer *fakeMailer
	deps   Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	st := newMemStore()
	m := &fakeMailer{}
	return &fixture{
		st:     st,
		db:     db,
		mock:   mock,
		mailer: m,
		deps: Deps{
			DB:     db,
			Repos:  memRepoManager{st},
			Meta:   testMeta("2010"),
			Mailer: m,
			Now:    beforeDL,
		},
	}
}

func (f *fixture) applicationService(t *testing.T) *ApplicationService {
	t.Helper()
	s, err := NewApplicationService(f.deps, testConfig())
	if err != nil {
		t.Fatalf("NewApplicationService: %v", err)
	}
	return s
}

func (f *fixture) expectationsMet(t *testing.T) {
	t.Helper()
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}
