package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	var v struct {
		A Duration `json:"a"`
		B Duration `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"90m","b":1000000000}`), &v))
	assert.Equal(t, 90*time.Minute, v.A.Duration)
	assert.Equal(t, time.Second, v.B.Duration)

	var bad Duration
	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`true`), &bad))
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Duration{Duration: 2 * time.Hour})
	require.NoError(t, err)
	assert.Equal(t, `"2h0m0s"`, string(b))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2010-03-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2010, time.March, 31, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("31.03.2010")
	assert.Error(t, err)
}

func TestSameOrBeforeDay(t *testing.T) {
	deadline := time.Date(2010, time.March, 31, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameOrBeforeDay(deadline.Add(23*time.Hour), deadline))
	assert.True(t, SameOrBeforeDay(deadline.AddDate(0, 0, -1), deadline))
	assert.False(t, SameOrBeforeDay(deadline.AddDate(0, 0, 1), deadline))
	assert.False(t, SameOrBeforeDay(deadline.AddDate(1, -6, 0), deadline))
	assert.True(t, SameOrBeforeDay(deadline.AddDate(-1, 6, 0), deadline))
}
