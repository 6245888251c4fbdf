package timeutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/adhocore/gronx"

	"github.com/nextlevelbuilder/temporal-agent-mcp/internal/safety"
)

// maxLookahead bounds how far into the future a cron expression is allowed
// to resolve before being rejected as infeasible (guards against
// expressions like "0 0 30 2 *" whose fields are each valid but whose
// combination never occurs).
const maxLookahead = 366 * 24 * time.Hour

// ValidateCron runs the safety-layer whitelist/shape checks, gronx's own
// field-syntax validation, and the one-year feasibility guard.
func ValidateCron(expr string, tz string) error {
	if err := safety.ValidateCronSyntax(expr); err != nil {
		return fmt.Errorf("InvalidCron: %w", err)
	}

	gx := gronx.New()
	if !gx.IsValid(expr) {
		return fmt.Errorf("InvalidCron: %q is not a valid cron expression", expr)
	}

	loc, err := resolveLocation(tz)
	if err != nil {
		return fmt.Errorf("InvalidCron: %w", err)
	}

	if _, err := NextAfter(expr, loc, time.Now().In(loc)); err != nil {
		return err
	}
	return nil
}

// NextAfter returns the smallest instant strictly greater than after that
// matches expr, evaluated in the given location. Fails with InvalidCron if
// no match occurs within one year.
func NextAfter(expr string, loc *time.Location, after time.Time) (time.Time, error) {
	start := after.In(loc)
	next, err := gronx.NextTickAfter(expr, start, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("InvalidCron: computing next fire time: %w", err)
	}
	if next.Sub(start) > maxLookahead {
		return time.Time{}, fmt.Errorf("InvalidCron: %q does not fire within one year", expr)
	}
	return next.In(loc), nil
}

// Upcoming produces the next n matches for expr, starting strictly after
// from.
func Upcoming(expr string, tz string, n int, from time.Time) ([]time.Time, error) {
	loc, err := resolveLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("InvalidCron: %w", err)
	}

	out := make([]time.Time, 0, n)
	cursor := from.In(loc)
	for i := 0; i < n; i++ {
		next, err := NextAfter(expr, loc, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, next)
		cursor = next
	}
	return out, nil
}

// Describe produces a best-effort human-readable description of a cron
// expression, recognizing a handful of common shapes; falls back to the raw
// expression when no friendly form is recognized.
func Describe(expr string) string {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return expr
	}
	minute, hour, dom, month, dow := fields[0], fields[1], fields[2], fields[3], fields[4]

	if dom == "*" && month == "*" && dow == "*" && isNumeric(minute) && isNumeric(hour) {
		return fmt.Sprintf("daily at %s:%s", pad2(hour), pad2(minute))
	}
	if dom == "*" && month == "*" && dow != "*" && isNumeric(minute) && isNumeric(hour) {
		return fmt.Sprintf("weekly on %s at %s:%s", dow, pad2(hour), pad2(minute))
	}
	if dom != "*" && month == "*" && dow == "*" && isNumeric(minute) && isNumeric(hour) {
		return fmt.Sprintf("monthly on day %s at %s:%s", dom, pad2(hour), pad2(minute))
	}
	return expr
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// resolveLocation loads an IANA timezone, defaulting to UTC.
func resolveLocation(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", tz, err)
	}
	return loc, nil
}
