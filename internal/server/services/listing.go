package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/candidates/internal/common"
	"github.com/dmitrijs2005/candidates/internal/logging"
	"github.com/dmitrijs2005/candidates/internal/server/attachments"
	"github.com/dmitrijs2005/candidates/internal/server/models"
	"github.com/dmitrijs2005/candidates/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/candidates/internal/server/rounds"
)

// AttachmentLink is a stored document with a short-lived download URL.
type AttachmentLink struct {
	Attachment *models.Attachment
	URL        string
}

type ListingEntry struct {
	models.ApplicationListItem
	PrivateURL  string
	Attachments []AttachmentLink
}

type Listing struct {
	RoundName string
	Entries   []*ListingEntry
}

// ListingService shows staff every application of a round.
type ListingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	meta        rounds.Meta
	presigner   attachments.Presigner
	logger      logging.Logger
}

func NewListingService(d Deps) (*ListingService, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &ListingService{
		db:          d.DB,
		repomanager: d.Repos,
		meta:        d.Meta,
		presigner:   d.Presigner,
		logger:      d.Logger.With("module", "listing"),
	}, nil
}

// List returns the applications of roundName, or of the current round when
// it is empty, ordered by applicant name. The caller needs the round's view
// permission.
func (s *ListingService) List(ctx context.Context, caller *Caller, roundName string) (*Listing, error) {
	if caller == nil {
		return nil, common.ErrorForbidden
	}
	accounts := s.repomanager.Accounts(s.db)
	ok, err := accounts.HasPermission(ctx, caller.AccountID, s.meta.ViewPermission())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorForbidden
	}

	if roundName == "" {
		roundName = s.meta.CurrentRoundName()
	}

	items, err := s.repomanager.Applications(s.db).ListByRound(ctx, roundName)
	if err != nil {
		return nil, err
	}

	atts := s.repomanager.Attachments(s.db)
	out := &Listing{RoundName: roundName, Entries: make([]*ListingEntry, 0, len(items))}
	for _, it := range items {
		e := &ListingEntry{ApplicationListItem: *it, PrivateURL: PrivatePath(it.Account.Username)}

		docs, err := atts.ListByApplication(ctx, it.Application.ID)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			link := AttachmentLink{Attachment: d}
			if s.presigner != nil {
				if link.URL, err = s.presigner.PresignGet(ctx, d.StorageKey); err != nil {
					// listing stays usable without download links
					s.logger.Warn(ctx, "presign attachment download failed", "attachment_id", d.ID, "error", err)
				}
			}
			e.Attachments = append(e.Attachments, link)
		}
		out.Entries = append(out.Entries, e)
	}
	return out, nil
}
