package forms

import (
	"context"
	"strconv"

	"github.com/dmitrijs2005/candidates/internal/server/models"
)

const (
	ApplicationPrefix = "application"

	MaxExperienceYears = 80
)

// ApplicationForm edits the round-specific fields of an application.
type ApplicationForm struct {
	Base
	app             *models.Application
	experienceYears int
}

// NewApplicationForm builds a form over app, or over a blank application
// when app is nil.
func NewApplicationForm(app *models.Application) *ApplicationForm {
	if app == nil {
		app = &models.Application{}
	}

	fields := []Field{
		{Name: "cv", Rules: "required,max=10000"},
		{Name: "experience_years", Rules: "required,number"},
	}
	initial := map[string]string{
		"cv":               app.CV,
		"experience_years": "",
	}
	if !app.IsNew() {
		initial["experience_years"] = strconv.Itoa(app.ExperienceYears)
	}

	return &ApplicationForm{
		Base: NewBase(ApplicationPrefix, fields, initial),
		app:  app,
	}
}

func (f *ApplicationForm) Validate(_ context.Context) (bool, error) {
	if !f.bound {
		return false, nil
	}
	if !f.ValidateFields() {
		return false, nil
	}

	n, err := strconv.Atoi(f.values["experience_years"])
	if err != nil || n < 0 || n > MaxExperienceYears {
		f.errors.Add("experience_years", "Ensure this value is between 0 and "+strconv.Itoa(MaxExperienceYears)+".")
		return false, nil
	}
	f.experienceYears = n
	return true, nil
}

// Application returns the instance with the cleaned values applied. Call
// it only after a successful Validate.
func (f *ApplicationForm) Application() *models.Application {
	a := *f.app
	if f.bound {
		a.CV = f.values["cv"]
		a.ExperienceYears = f.experienceYears
	}
	return &a
}
