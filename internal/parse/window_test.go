package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWindow(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  ParsedWindow
		expectErr bool
	}{
		{
			name:     "Standard window",
			raw:      "08:00-10:00",
			expected: ParsedWindow{StartMinute: 480, EndMinute: 600},
		},
		{
			name:     "Single digit hour",
			raw:      "8:30-9:45",
			expected: ParsedWindow{StartMinute: 510, EndMinute: 585},
		},
		{
			name:     "Spaces around separator",
			raw:      "  20:00 - 22:00 ",
			expected: ParsedWindow{StartMinute: 1200, EndMinute: 1320},
		},
		{
			name:     "Full width colon",
			raw:      "12：00-14：00",
			expected: ParsedWindow{StartMinute: 720, EndMinute: 840},
		},
		{
			name:     "Tilde separator",
			raw:      "14:00~16:00",
			expected: ParsedWindow{StartMinute: 840, EndMinute: 960},
		},
		{
			name:     "Ends at midnight",
			raw:      "22:00-24:00",
			expected: ParsedWindow{StartMinute: 1320, EndMinute: 1440},
		},
		{
			name:      "Start at 24:00",
			raw:       "24:00-24:00",
			expectErr: true,
		},
		{
			name:      "End before start",
			raw:       "10:00-08:00",
			expectErr: true,
		},
		{
			name:      "Empty window",
			raw:       "10:00-10:00",
			expectErr: true,
		},
		{
			name:      "Minute out of range",
			raw:       "10:75-11:00",
			expectErr: true,
		},
		{
			name:      "Garbage",
			raw:       "morning",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := ParseWindow(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, parsed)
			}
		})
	}
}

func TestParsedWindow_Label(t *testing.T) {
	assert.Equal(t, "08:00-10:00", ParsedWindow{StartMinute: 480, EndMinute: 600}.Label())
	assert.Equal(t, "22:30-24:00", ParsedWindow{StartMinute: 1350, EndMinute: 1440}.Label())
}
