// Package timeutil implements the time/cron evaluator: relative and
// absolute one-shot time parsing, and 5-field cron evaluation parameterized
// by an IANA timezone. Built on github.com/adhocore/gronx for cron field
// matching, following the teacher's cron.Service.computeNextRun use of
// gronx.NextTickAfter, generalized with the one-year infeasibility guard and
// timezone parameterization this spec requires.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var relativeDurationRe = regexp.MustCompile(`^(\d+)(ms|s|m|h|d|w)$`)

// unitDurations maps a relative-duration unit suffix to its time.Duration
// multiplier. "ms", "s", "m", "h" map directly; "d" and "w" are defined as
// 24h and 7*24h respectively (calendar-naive, matching a scheduler that
// reasons in wall-clock offsets rather than calendar days).
var unitDurations = map[string]time.Duration{
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  24 * time.Hour,
	"w":  7 * 24 * time.Hour,
}

// ParseOneShotTime resolves a one-shot "at"/"in" input into an absolute
// fire time. "in" values are relative durations of the form <integer><unit>
// with unit in {ms,s,m,h,d,w}; "at" values are absolute ISO-8601
// timestamps. Absolute timestamps strictly in the past fail with
// InvalidTime.
func ParseOneShotTime(at, in string, now time.Time) (time.Time, error) {
	switch {
	case in != "":
		d, err := ParseRelativeDuration(in)
		if err != nil {
			return time.Time{}, err
		}
		return now.Add(d), nil

	case at != "":
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return time.Time{}, fmt.Errorf("InvalidTime: unparseable absolute timestamp %q: %w", at, err)
		}
		if t.Before(now) {
			return time.Time{}, fmt.Errorf("InvalidTime: %s is in the past", at)
		}
		return t, nil

	default:
		return time.Time{}, fmt.Errorf("InvalidInput: one of 'at' or 'in' is required")
	}
}

// ParseRelativeDuration parses a relative duration string of the form
// <integer><unit>, unit in {ms,s,m,h,d,w}.
func ParseRelativeDuration(in string) (time.Duration, error) {
	m := relativeDurationRe.FindStringSubmatch(in)
	if m == nil {
		return 0, fmt.Errorf("InvalidTime: %q is not a valid relative duration (expect <integer><ms|s|m|h|d|w>)", in)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("InvalidTime: %q: %w", in, err)
	}
	unit := unitDurations[m[2]]
	return time.Duration(n) * unit, nil
}
