package forms

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/candidates/internal/common"
	"github.com/dmitrijs2005/candidates/internal/server/models"
)

const AccountPrefix = "user"

// DuplicateChecker finds an existing application for the same person in a
// round. Matching is case-insensitive on all three values.
type DuplicateChecker interface {
	HasApplicationInRound(ctx context.Context, firstName, lastName, email, roundName string) (bool, error)
}

// AccountForm edits the person behind an application.
type AccountForm struct {
	Base
	account   *models.Account
	roundName string
	dup       DuplicateChecker
}

// NewAccountForm builds a form over account, or over a blank account when
// account is nil. New accounts are checked for a duplicate application in
// roundName, so roundName and dup are mandatory.
func NewAccountForm(account *models.Account, roundName string, dup DuplicateChecker) (*AccountForm, error) {
	if roundName == "" {
		return nil, fmt.Errorf("%w: account form needs the current round name", common.ErrConfiguration)
	}
	if dup == nil {
		return nil, fmt.Errorf("%w: account form needs a duplicate checker", common.ErrConfiguration)
	}
	if account == nil {
		account = &models.Account{IsActive: true}
	}

	fields := []Field{
		{Name: "first_name", Rules: "required,max=30"},
		{Name: "last_name", Rules: "required,max=30"},
		{Name: "email", Rules: "required,max=254,email"},
	}
	initial := map[string]string{
		"first_name": account.FirstName,
		"last_name":  account.LastName,
		"email":      account.Email,
	}

	return &AccountForm{
		Base:      NewBase(AccountPrefix, fields, initial),
		account:   account,
		roundName: roundName,
		dup:       dup,
	}, nil
}

func (f *AccountForm) Validate(ctx context.Context) (bool, error) {
	if !f.bound {
		return false, nil
	}
	if !f.ValidateFields() {
		return false, nil
	}
	if !f.account.IsNew() {
		return true, nil
	}

	exists, err := f.dup.HasApplicationInRound(ctx, f.values["first_name"], f.values["last_name"], f.values["email"], f.roundName)
	if err != nil {
		return false, fmt.Errorf("duplicate check: %w", err)
	}
	if exists {
		f.errors.Add(NonFieldKey, common.ErrDuplicateApplication.Error())
		return false, nil
	}
	return true, nil
}

// Account returns the instance with the cleaned values applied. Call it
// only after a successful Validate.
func (f *AccountForm) Account() *models.Account {
	a := *f.account
	if f.bound {
		a.FirstName = f.values["first_name"]
		a.LastName = f.values["last_name"]
		a.Email = f.values["email"]
	}
	return &a
}
