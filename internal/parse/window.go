package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	windowRe = regexp.MustCompile(`^(\d{1,2})\s*[:：]\s*(\d{2})\s*[-–~]\s*(\d{1,2})\s*[:：]\s*(\d{2})$`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// ParsedWindow holds a daily window as minutes since midnight.
type ParsedWindow struct {
	StartMinute int
	EndMinute   int
}

// Label renders the window back in its canonical "HH:MM-HH:MM" form.
func (p ParsedWindow) Label() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", p.StartMinute/60, p.StartMinute%60, p.EndMinute/60, p.EndMinute%60)
}

// ParseWindow extracts start and end of a daily reservation window from strings
// such as "08:00-10:00". "24:00" is accepted as an end of day.
func ParseWindow(raw string) (ParsedWindow, error) {
	s := strings.TrimSpace(spaceRe.ReplaceAllString(raw, " "))

	m := windowRe.FindStringSubmatch(s)
	if m == nil {
		return ParsedWindow{}, fmt.Errorf("unable to parse window: %q", raw)
	}

	start, err := minuteOfDay(m[1], m[2], false)
	if err != nil {
		return ParsedWindow{}, fmt.Errorf("window %q: start: %w", raw, err)
	}
	end, err := minuteOfDay(m[3], m[4], true)
	if err != nil {
		return ParsedWindow{}, fmt.Errorf("window %q: end: %w", raw, err)
	}
	if end <= start {
		return ParsedWindow{}, fmt.Errorf("window %q: end must be after start", raw)
	}

	return ParsedWindow{StartMinute: start, EndMinute: end}, nil
}

func minuteOfDay(hh, mm string, allowMidnightEnd bool) (int, error) {
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, err
	}
	if m > 59 {
		return 0, fmt.Errorf("minute out of range: %d", m)
	}
	if h == 24 && m == 0 && allowMidnightEnd {
		return 24 * 60, nil
	}
	if h > 23 {
		return 0, fmt.Errorf("hour out of range: %d", h)
	}
	return h*60 + m, nil
}
