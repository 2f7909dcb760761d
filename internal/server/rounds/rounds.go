// Package rounds describes the application round the embedding site is
// currently running: its name, its submission deadline and the permission
// that unlocks the staff listing.
package rounds

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/candidates/internal/common"
	"github.com/dmitrijs2005/candidates/internal/timex"
)

// Meta is supplied by the embedding application.
type Meta interface {
	CurrentRoundName() string
	Deadline() time.Time
	ViewPermission() string
}

// Static is a Meta with fixed values, typically read from config.
type Static struct {
	RoundName  string
	DeadlineAt time.Time
	Permission string
}

// NewStatic builds a Static from raw config values. An empty roundName
// defaults to the deadline's year and an empty permission to
// common.PermissionViewApplication.
func NewStatic(roundName, deadline, permission string) (*Static, error) {
	if deadline == "" {
		return nil, fmt.Errorf("%w: deadline is not set", common.ErrConfiguration)
	}
	d, err := timex.ParseDate(deadline)
	if err != nil {
		return nil, fmt.Errorf("%w: deadline %q: %v", common.ErrConfiguration, deadline, err)
	}
	if roundName == "" {
		roundName = strconv.Itoa(d.Year())
	}
	if permission == "" {
		permission = common.PermissionViewApplication
	}
	return &Static{RoundName: roundName, DeadlineAt: d, Permission: permission}, nil
}

func (s *Static) CurrentRoundName() string { return s.RoundName }
func (s *Static) Deadline() time.Time      { return s.DeadlineAt }
func (s *Static) ViewPermission() string   { return s.Permission }

// Validate fails with common.ErrConfiguration when meta is missing or
// leaves any of its values empty.
func Validate(meta Meta) error {
	if meta == nil {
		return fmt.Errorf("%w: round meta is not configured", common.ErrConfiguration)
	}
	if meta.CurrentRoundName() == "" {
		return fmt.Errorf("%w: current round name is empty", common.ErrConfiguration)
	}
	if meta.Deadline().IsZero() {
		return fmt.Errorf("%w: deadline is not set", common.ErrConfiguration)
	}
	if meta.ViewPermission() == "" {
		return fmt.Errorf("%w: view permission is empty", common.ErrConfiguration)
	}
	return nil
}

// PastDeadline reports whether now falls on a day after the deadline.
// Submissions stay open for the whole deadline day.
func PastDeadline(meta Meta, now time.Time) bool {
	return !timex.SameOrBeforeDay(now.In(time.UTC), meta.Deadline())
}
