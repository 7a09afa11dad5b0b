package expiry

import (
	"strings"

	"github.com/systmms/kvreport/internal/errors"
)

// Mode is the caller's requested reporting scope. The numeric values are
// the wire form accepted on the CLI and in configuration.
type Mode int

const (
	ModeExpiredOnly  Mode = 0
	ModeAllUpcoming  Mode = 1
	ModeWithin30Only Mode = 30
	ModeWithin60Only Mode = 60
	ModeWithin90Only Mode = 90
)

// Valid reports whether m is one of the enumerated modes
func (m Mode) Valid() bool {
	switch m {
	case ModeExpiredOnly, ModeAllUpcoming, ModeWithin30Only, ModeWithin60Only, ModeWithin90Only:
		return true
	}
	return false
}

// String returns the word form used in config, subjects, and logs
func (m Mode) String() string {
	switch m {
	case ModeExpiredOnly:
		return "expired"
	case ModeAllUpcoming:
		return "all"
	case ModeWithin30Only:
		return "30d"
	case ModeWithin60Only:
		return "60d"
	case ModeWithin90Only:
		return "90d"
	}
	return "invalid"
}

// Selectors returns the upcoming-window selectors the mode requests.
// The expired window is collected separately by the report builder, so
// it never appears here.
func (m Mode) Selectors() []Selector {
	switch m {
	case ModeAllUpcoming:
		return []Selector{SelectWithin30, SelectWithin60, SelectWithin90}
	case ModeWithin30Only:
		return []Selector{SelectWithin30}
	case ModeWithin60Only:
		return []Selector{SelectWithin60}
	case ModeWithin90Only:
		return []Selector{SelectWithin90}
	}
	return nil
}

// ParseMode maps a CLI or config range value to a Mode. Both the numeric
// form (0, 1, 30, 60, 90) and the word form (expired, all, 30d, 60d,
// 90d) are accepted. Anything else is rejected here, at the boundary,
// before any pipeline code runs.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "expired":
		return ModeExpiredOnly, nil
	case "1", "all":
		return ModeAllUpcoming, nil
	case "30", "30d":
		return ModeWithin30Only, nil
	case "60", "60d":
		return ModeWithin60Only, nil
	case "90", "90d":
		return ModeWithin90Only, nil
	}
	return 0, errors.ConfigError{
		Field:      "range",
		Value:      s,
		Message:    "not a valid report range",
		Suggestion: "Valid ranges: 0 (expired), 1 (all upcoming), 30, 60, 90",
	}
}
