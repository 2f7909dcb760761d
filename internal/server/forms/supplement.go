package forms

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/candidates/internal/dbx"
	"github.com/dmitrijs2005/candidates/internal/server/models"
)

// SupplementForm is an extra form the embedding site shows next to the
// account and application forms. Save runs inside the submission
// transaction once every form has validated.
type SupplementForm interface {
	Form
	Save(ctx context.Context, tx dbx.DBTX, app *models.Application) error
}

// Noticer is implemented by supplement forms that have something to tell
// the applicant after a successful save.
type Noticer interface {
	Notices() []string
}

// Upload is a presigned PUT target the browser sends a file to.
type Upload struct {
	Filename    string
	ContentType string
	URL         string
}

// Uploader is implemented by supplement forms that hand the browser
// upload targets after a successful save.
type Uploader interface {
	Uploads() []Upload
}

// SupplementFactory builds a supplement form for app. app is never nil but
// may be unsaved.
type SupplementFactory func(ctx context.Context, app *models.Application) (SupplementForm, error)

// Supplement names one registered factory.
type Supplement struct {
	Name string
	New  SupplementFactory
}

// Supplements are built, validated and saved in order.
type Supplements []Supplement

// Build instantiates every supplement for app.
func (s Supplements) Build(ctx context.Context, app *models.Application) ([]SupplementForm, error) {
	out := make([]SupplementForm, 0, len(s))
	for _, sup := range s {
		f, err := sup.New(ctx, app)
		if err != nil {
			return nil, fmt.Errorf("supplement %s: %w", sup.Name, err)
		}
		out = append(out, f)
	}
	return out, nil
}
