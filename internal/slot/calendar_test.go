package slot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCalendar_Defaults(t *testing.T) {
	cal, err := NewCalendar(nil, nil)
	require.NoError(t, err)

	windows := cal.Windows()
	require.Len(t, windows, 7)
	assert.Equal(t, "08:00-10:00", windows[0].Label)
	assert.Equal(t, "08:00", windows[0].Start)
	assert.Equal(t, "10:00", windows[0].End)
	assert.Equal(t, 6, windows[6].Index)
	assert.Equal(t, "20:00-22:00", windows[6].Label)
	assert.Equal(t, time.UTC, cal.Location())
}

func TestNewCalendar_Rejects(t *testing.T) {
	testCases := []struct {
		name  string
		specs []string
	}{
		{name: "Unparseable", specs: []string{"08:00-10:00", "noon"}},
		{name: "Overlapping", specs: []string{"08:00-10:00", "09:00-11:00"}},
		{name: "Out of order", specs: []string{"10:00-12:00", "08:00-10:00"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCalendar(tc.specs, time.UTC)
			assert.Error(t, err)
		})
	}
}

func TestCalendar_Bounds(t *testing.T) {
	loc := time.FixedZone("MSK", 3*3600)
	cal, err := NewCalendar([]string{"08:00-10:00", "22:00-24:00"}, loc)
	require.NoError(t, err)

	start, end, err := cal.Bounds("2026-10-20", 0)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 20, 8, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, 10, 20, 10, 0, 0, 0, loc), end)

	_, end, err = cal.Bounds("2026-10-20", 1)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 21, 0, 0, 0, 0, loc), end)

	_, _, err = cal.Bounds("2026-10-20", 2)
	assert.ErrorIs(t, err, ErrUnknownWindow)

	_, _, err = cal.Bounds("20-10-2026", 0)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestCalendar_Elapsed(t *testing.T) {
	cal, err := NewCalendar(nil, time.UTC)
	require.NoError(t, err)

	end := time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)
	assert.False(t, cal.Elapsed("2026-10-20", 0, end.Add(-time.Second)))
	assert.True(t, cal.Elapsed("2026-10-20", 0, end))
	assert.True(t, cal.Elapsed("2026-10-20", 0, end.Add(time.Hour)))
	assert.False(t, cal.Elapsed("bad-date", 0, end))
}

func TestCalendar_Validate(t *testing.T) {
	cal, err := NewCalendar(nil, time.UTC)
	require.NoError(t, err)

	assert.NoError(t, cal.Validate("2026-10-20", 3))
	assert.ErrorIs(t, cal.Validate("2026-10-20", -1), ErrUnknownWindow)
	assert.ErrorIs(t, cal.Validate("2026-10-20", 7), ErrUnknownWindow)
	assert.ErrorIs(t, cal.Validate("2026-02-30", 0), ErrInvalidDate)
}

func TestCalendar_Today(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	cal, err := NewCalendar(nil, loc)
	require.NoError(t, err)

	now := time.Date(2026, 10, 20, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-10-21", cal.Today(now))
}
