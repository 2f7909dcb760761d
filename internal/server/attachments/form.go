package attachments

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/candidates/internal/common"
	"github.com/dmitrijs2005/candidates/internal/dbx"
	"github.com/dmitrijs2005/candidates/internal/server/forms"
	"github.com/dmitrijs2005/candidates/internal/server/models"
	"github.com/dmitrijs2005/candidates/internal/server/repositories/repomanager"
)

const Prefix = "attachment"

// ContentTypes lists the accepted document types by file extension.
var ContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".odt":  "application/vnd.oasis.opendocument.text",
	".txt":  "text/plain",
}

// Form registers an optional CV document. On save it records the
// attachment and prepares a presigned upload URL for the browser.
type Form struct {
	forms.Base
	rm        repomanager.RepositoryManager
	presigner Presigner
	now       func() time.Time

	contentType string
	uploadURL   string
}

// Supplement returns the registration for Form.
func Supplement(rm repomanager.RepositoryManager, presigner Presigner, now func() time.Time) forms.Supplement {
	if now == nil {
		now = time.Now
	}
	return forms.Supplement{
		Name: "attachment",
		New: func(_ context.Context, _ *models.Application) (forms.SupplementForm, error) {
			return NewForm(rm, presigner, now), nil
		},
	}
}

func NewForm(rm repomanager.RepositoryManager, presigner Presigner, now func() time.Time) *Form {
	fields := []forms.Field{
		{Name: "filename", Rules: "max=255"},
		{Name: "content_type"},
	}
	return &Form{
		Base:      forms.NewBase(Prefix, fields, nil),
		rm:        rm,
		presigner: presigner,
		now:       now,
	}
}

func (f *Form) Validate(_ context.Context) (bool, error) {
	if !f.IsBound() {
		return false, nil
	}
	if !f.ValidateFields() {
		return false, nil
	}

	name := f.Value("filename")
	if name == "" {
		return true, nil
	}
	if strings.ContainsAny(name, `/\`) {
		f.Errors().Add("filename", "Enter a file name without directories.")
		return false, nil
	}

	want, ok := ContentTypes[strings.ToLower(path.Ext(name))]
	if !ok {
		f.Errors().Add("filename", "Upload a PDF, Word, OpenDocument or plain text file.")
		return false, nil
	}
	if ct := f.Value("content_type"); ct != "" && ct != want {
		f.Errors().Add("content_type", "The content type does not match the file name.")
		return false, nil
	}
	f.contentType = want
	return true, nil
}

// Save does nothing when no file was named.
func (f *Form) Save(ctx context.Context, tx dbx.DBTX, app *models.Application) error {
	name := f.Value("filename")
	if name == "" {
		return nil
	}
	if f.presigner == nil {
		return fmt.Errorf("%w: attachment storage is not configured", common.ErrConfiguration)
	}

	att, err := f.rm.Attachments(tx).Create(ctx, &models.Attachment{
		ApplicationID: app.ID,
		StorageKey:    NewStorageKey(f.now(), app.ID),
		Filename:      name,
		ContentType:   f.contentType,
	})
	if err != nil {
		return fmt.Errorf("record attachment: %w", err)
	}

	url, err := f.presigner.PresignPut(ctx, att.StorageKey, att.ContentType)
	if err != nil {
		return err
	}
	f.uploadURL = url
	return nil
}

// Notices asks the applicant to finish the upload.
func (f *Form) Notices() []string {
	if f.uploadURL == "" {
		return nil
	}
	return []string{"Choose " + f.Value("filename") + " below to upload it."}
}

// Uploads returns the presigned target for the named file.
func (f *Form) Uploads() []forms.Upload {
	if f.uploadURL == "" {
		return nil
	}
	return []forms.Upload{{Filename: f.Value("filename"), ContentType: f.contentType, URL: f.uploadURL}}
}

// UploadURL is set after a successful Save of a named file.
func (f *Form) UploadURL() string { return f.uploadURL }
