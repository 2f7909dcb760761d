package rounds

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/candidates/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatic_Defaults(t *testing.T) {
	m, err := NewStatic("", "2010-03-31", "")
	require.NoError(t, err)
	assert.Equal(t, "2010", m.CurrentRoundName())
	assert.Equal(t, time.Date(2010, 3, 31, 0, 0, 0, 0, time.UTC), m.Deadline())
	assert.Equal(t, common.PermissionViewApplication, m.ViewPermission())
	assert.NoError(t, Validate(m))
}

func TestNewStatic_Explicit(t *testing.T) {
	m, err := NewStatic("spring", "2010-03-31", "custom_permission")
	require.NoError(t, err)
	assert.Equal(t, "spring", m.CurrentRoundName())
	assert.Equal(t, "custom_permission", m.ViewPermission())
}

func TestNewStatic_Errors(t *testing.T) {
	_, err := NewStatic("2010", "", "")
	assert.ErrorIs(t, err, common.ErrConfiguration)

	_, err = NewStatic("2010", "tomorrow", "")
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestValidate_MissingPieces(t *testing.T) {
	assert.ErrorIs(t, Validate(nil), common.ErrConfiguration)
	assert.ErrorIs(t, Validate(&Static{DeadlineAt: time.Now(), Permission: "p"}), common.ErrConfiguration)
	assert.ErrorIs(t, Validate(&Static{RoundName: "2010", Permission: "p"}), common.ErrConfiguration)
	assert.ErrorIs(t, Validate(&Static{RoundName: "2010", DeadlineAt: time.Now()}), common.ErrConfiguration)
}

func TestPastDeadline(t *testing.T) {
	m := &Static{RoundName: "2010", DeadlineAt: time.Date(2010, 3, 31, 0, 0, 0, 0, time.UTC), Permission: "p"}

	assert.False(t, PastDeadline(m, time.Date(2010, 3, 30, 12, 0, 0, 0, time.UTC)))
	assert.False(t, PastDeadline(m, time.Date(2010, 3, 31, 23, 59, 0, 0, time.UTC)))
	assert.True(t, PastDeadline(m, time.Date(2010, 4, 1, 0, 0, 1, 0, time.UTC)))
}
