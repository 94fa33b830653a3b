package harness

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrTimingParse is wrapped by every TimingError.
var ErrTimingParse = errors.New("unparseable timing output")

// timingPattern matches "real <f> user <f> sys <f>" with any whitespace,
// newlines included, between the tokens.
var timingPattern = regexp.MustCompile(
	`real\s*(?P<real>[0-9]+\.[0-9]+)\s*` +
		`user\s*(?P<user>[0-9]+\.[0-9]+)\s*` +
		`sys\s*(?P<sys>[0-9]+\.[0-9]+)`,
)

// TimingError carries the first line of wrapper stderr that could not be
// parsed as a timing report.
type TimingError struct {
	Line string
}

func (e *TimingError) Error() string {
	return fmt.Sprintf("%s: %s", ErrTimingParse, e.Line)
}

func (e *TimingError) Unwrap() error { return ErrTimingParse }

// ParseTiming extracts the real, user and sys values from a timing
// wrapper's stderr.
func ParseTiming(stderr string) (Timing, error) {
	m := timingPattern.FindStringSubmatch(stderr)
	if m == nil {
		return Timing{}, &TimingError{Line: firstLine(stderr)}
	}

	return Timing{
		Real: m[timingPattern.SubexpIndex("real")],
		User: m[timingPattern.SubexpIndex("user")],
		Sys:  m[timingPattern.SubexpIndex("sys")],
	}, nil
}

// Seconds converts the timing fields to float64.
func (t Timing) Seconds() (wall, user, sys float64, err error) {
	if wall, err = strconv.ParseFloat(t.Real, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("real %q: %w", t.Real, err)
	}

	if user, err = strconv.ParseFloat(t.User, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("user %q: %w", t.User, err)
	}

	if sys, err = strconv.ParseFloat(t.Sys, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("sys %q: %w", t.Sys, err)
	}

	return wall, user, sys, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")

	return strings.TrimSuffix(line, "\r")
}
