package slot

import (
	"errors"
	"fmt"
	"time"

	"laundry-booking-backend/internal/parse"
)

// DateLayout is the wire and storage format of a slot date.
const DateLayout = "2006-01-02"

// DefaultWindows are the daily windows used when none are configured.
var DefaultWindows = []string{
	"08:00-10:00",
	"10:00-12:00",
	"12:00-14:00",
	"14:00-16:00",
	"16:00-18:00",
	"18:00-20:00",
	"20:00-22:00",
}

var (
	ErrUnknownWindow = errors.New("slot: unknown time window")
	ErrInvalidDate   = errors.New("slot: invalid date")
)

// Window is one of the fixed, ordered daily reservation periods.
type Window struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end"`

	startMinute int
	endMinute   int
}

// Calendar derives bookable (date, window) combinations and their wall-clock bounds.
type Calendar struct {
	windows []Window
	loc     *time.Location
}

// NewCalendar builds a calendar from window definitions in "HH:MM-HH:MM" form.
// Windows must be given in chronological order and must not overlap.
func NewCalendar(raws []string, loc *time.Location) (*Calendar, error) {
	if len(raws) == 0 {
		raws = DefaultWindows
	}
	if loc == nil {
		loc = time.UTC
	}

	windows := make([]Window, 0, len(raws))
	prevEnd := -1
	for i, raw := range raws {
		p, err := parse.ParseWindow(raw)
		if err != nil {
			return nil, err
		}
		if p.StartMinute < prevEnd {
			return nil, fmt.Errorf("window %q overlaps or precedes the previous window", raw)
		}
		prevEnd = p.EndMinute

		label := p.Label()
		windows = append(windows, Window{
			Index:       i,
			Label:       label,
			Start:       label[:5],
			End:         label[6:],
			startMinute: p.StartMinute,
			endMinute:   p.EndMinute,
		})
	}

	return &Calendar{windows: windows, loc: loc}, nil
}

// Windows returns a copy of the ordered window list.
func (c *Calendar) Windows() []Window {
	out := make([]Window, len(c.windows))
	copy(out, c.windows)
	return out
}

// Window looks up a window by index.
func (c *Calendar) Window(index int) (Window, bool) {
	if index < 0 || index >= len(c.windows) {
		return Window{}, false
	}
	return c.windows[index], true
}

// Location is the timezone window bounds are evaluated in.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// ParseDate validates a "YYYY-MM-DD" date in the calendar's timezone.
func (c *Calendar) ParseDate(date string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return d, nil
}

// Validate checks that date and window both name a real slot.
func (c *Calendar) Validate(date string, window int) error {
	if _, err := c.ParseDate(date); err != nil {
		return err
	}
	if _, ok := c.Window(window); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownWindow, window)
	}
	return nil
}

// Bounds returns the wall-clock start and end of a window on a date.
func (c *Calendar) Bounds(date string, window int) (time.Time, time.Time, error) {
	d, err := c.ParseDate(date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	w, ok := c.Window(window)
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %d", ErrUnknownWindow, window)
	}
	start := time.Date(d.Year(), d.Month(), d.Day(), w.startMinute/60, w.startMinute%60, 0, 0, c.loc)
	end := time.Date(d.Year(), d.Month(), d.Day(), 0, w.endMinute, 0, 0, c.loc)
	return start, end, nil
}

// Elapsed reports whether the window's end-time is at or before now.
// Unknown slots never elapse.
func (c *Calendar) Elapsed(date string, window int, now time.Time) bool {
	_, end, err := c.Bounds(date, window)
	if err != nil {
		return false
	}
	return !now.Before(end)
}

// Today is the current date in the calendar's timezone.
func (c *Calendar) Today(now time.Time) string {
	return now.In(c.loc).Format(DateLayout)
}
