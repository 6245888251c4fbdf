package safety

import (
	"fmt"
	"strings"
)

// cronWhitelist is the exact character class a cron expression may contain:
// digits, space/tab, comma, hyphen, asterisk, slash, L, W, #, ?.
const cronWhitelist = "0123456789 \t,-*/LW#?"

const maxCronFieldBytes = 20
const maxCommaListLen = 30

// ValidateCronSyntax enforces the injection/DoS whitelist from the safety
// layer before any expression is handed to the cron evaluator: character
// class, exact 5-field shape, per-field length cap, and the "every minute"
// and "too many values" guards.
func ValidateCronSyntax(expr string) error {
	for _, r := range expr {
		if !strings.ContainsRune(cronWhitelist, r) {
			return fmt.Errorf("InvalidChars: cron expression contains disallowed character %q", r)
		}
	}

	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return fmt.Errorf("InvalidShape: cron expression must have exactly 5 fields, got %d", len(fields))
	}

	for i, f := range fields {
		if len(f) > maxCronFieldBytes {
			return fmt.Errorf("FieldTooLong: cron field %d exceeds %d bytes", i, maxCronFieldBytes)
		}
	}

	minute := fields[0]
	if minute == "*" || minute == "*/1" {
		return fmt.Errorf("TooFrequent: cron expression fires too frequently (minute field %q)", minute)
	}

	if strings.Count(minute, ",")+1 > maxCommaListLen && strings.Contains(minute, ",") {
		if len(strings.Split(minute, ",")) > maxCommaListLen {
			return fmt.Errorf("TooManyValues: minute field lists more than %d values", maxCommaListLen)
		}
	}

	return nil
}
