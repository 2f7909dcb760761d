package attachments

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/candidates/internal/common"
	"github.com/dmitrijs2005/candidates/internal/dbx"
	"github.com/dmitrijs2005/candidates/internal/server/forms"
	"github.com/dmitrijs2005/candidates/internal/server/models"
	"github.com/dmitrijs2005/candidates/internal/server/repositories/attachments"
	"github.com/dmitrijs2005/candidates/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAttachmentRepo struct {
	created []*models.Attachment
	err     error
}

func (r *fakeAttachmentRepo) Create(_ context.Context, att *models.Attachment) (*models.Attachment, error) {
	if r.err != nil {
		return nil, r.err
	}
	c := *att
	c.ID = int64(len(r.created) + 1)
	r.created = append(r.created, &c)
	return &c, nil
}

func (r *fakeAttachmentRepo) ListByApplication(context.Context, int64) ([]*models.Attachment, error) {
	return r.created, nil
}

type fakeRM struct {
	repomanager.RepositoryManager
	repo  *fakeAttachmentRepo
	gotDB dbx.DBTX
}

func (m *fakeRM) Attachments(db dbx.DBTX) attachments.Repository {
	m.gotDB = db
	return m.repo
}

type fakePresigner struct {
	putKey string
	putCT  string
	err    error
}

func (p *fakePresigner) PresignPut(_ context.Context, key, contentType string) (string, error) {
	p.putKey, p.putCT = key, contentType
	return "https://s3/" + key, p.err
}

func (p *fakePresigner) PresignGet(_ context.Context, key string) (string, error) {
	return "https://s3/" + key, p.err
}

var fixedNow = func() time.Time { return time.Date(2010, 3, 7, 12, 0, 0, 0, time.UTC) }

func bound(t *testing.T, rm repomanager.RepositoryManager, p Presigner, filename, ct string) *Form {
	t.Helper()
	f := NewForm(rm, p, fixedNow)
	f.Bind(url.Values{"attachment-filename": {filename}, "attachment-content_type": {ct}})
	return f
}

func TestForm_Validate(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		ct       string
		ok       bool
		field    string
	}{
		{"empty is fine", "", "", true, ""},
		{"pdf", "cv.PDF", "", true, ""},
		{"docx with type", "cv.docx", ContentTypes[".docx"], true, ""},
		{"unknown extension", "cv.exe", "", false, "filename"},
		{"directory", "../cv.pdf", "", false, "filename"},
		{"mismatched type", "cv.pdf", "text/plain", false, "content_type"},
		{"too long", strings.Repeat("a", 256) + ".pdf", "", false, "filename"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := bound(t, &fakeRM{}, &fakePresigner{}, tc.filename, tc.ct)
			ok, err := f.Validate(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.ok, ok)
			if tc.field != "" {
				assert.True(t, f.Errors().Has(tc.field), "expected error on %s, got %v", tc.field, f.Errors())
			}
		})
	}
}

func TestForm_UnboundIsInvalid(t *testing.T) {
	f := NewForm(&fakeRM{}, &fakePresigner{}, fixedNow)
	ok, err := f.Validate(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Prefix, f.Prefix())
}

func TestForm_SaveRecordsAndPresigns(t *testing.T) {
	repo := &fakeAttachmentRepo{}
	rm := &fakeRM{repo: repo}
	p := &fakePresigner{}
	tx := &sql.Tx{}

	f := bound(t, rm, p, "cv.pdf", "")
	ok, err := f.Validate(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, f.Save(context.Background(), tx, &models.Application{ID: 7}))

	require.Len(t, repo.created, 1)
	att := repo.created[0]
	assert.Equal(t, int64(7), att.ApplicationID)
	assert.Equal(t, "cv.pdf", att.Filename)
	assert.Equal(t, "application/pdf", att.ContentType)
	assert.True(t, strings.HasPrefix(att.StorageKey, "applications/7/2010/03/07/"))
	assert.Same(t, tx, rm.gotDB)

	assert.Equal(t, att.StorageKey, p.putKey)
	assert.Equal(t, "application/pdf", p.putCT)
	assert.Equal(t, "https://s3/"+att.StorageKey, f.UploadURL())

	var n forms.Noticer = f
	assert.Equal(t, []string{"Choose cv.pdf below to upload it."}, n.Notices())

	var u forms.Uploader = f
	assert.Equal(t, []forms.Upload{{Filename: "cv.pdf", ContentType: "application/pdf", URL: "https://s3/" + att.StorageKey}}, u.Uploads())
}

func TestForm_SaveWithoutFileIsNoop(t *testing.T) {
	repo := &fakeAttachmentRepo{}
	f := bound(t, &fakeRM{repo: repo}, nil, "", "")
	require.NoError(t, f.Save(context.Background(), nil, &models.Application{ID: 7}))
	assert.Empty(t, repo.created)
	assert.Nil(t, f.Notices())
	assert.Nil(t, f.Uploads())
}

func TestForm_SaveErrors(t *testing.T) {
	boom := errors.New("boom")

	f := bound(t, &fakeRM{repo: &fakeAttachmentRepo{}}, nil, "cv.pdf", "")
	assert.ErrorIs(t, f.Save(context.Background(), nil, &models.Application{ID: 1}), common.ErrConfiguration)

	f = bound(t, &fakeRM{repo: &fakeAttachmentRepo{err: boom}}, &fakePresigner{}, "cv.pdf", "")
	assert.ErrorIs(t, f.Save(context.Background(), nil, &models.Application{ID: 1}), boom)

	f = bound(t, &fakeRM{repo: &fakeAttachmentRepo{}}, &fakePresigner{err: boom}, "cv.pdf", "")
	assert.ErrorIs(t, f.Save(context.Background(), nil, &models.Application{ID: 1}), boom)
}

func TestSupplement_Factory(t *testing.T) {
	s := Supplement(&fakeRM{}, &fakePresigner{}, nil)
	assert.Equal(t, "attachment", s.Name)

	f, err := s.New(context.Background(), &models.Application{})
	require.NoError(t, err)
	assert.Equal(t, Prefix, f.Prefix())
}
