package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrUnknownTimezone = errors.New("unknown timezone")

// RoundToMinute rounds t to the nearest whole minute: seconds >= 30 advance
// to the next minute, anything less truncates down. The tick cadence is
// approximate, so rounding before comparison guarantees at most one match
// per calendar minute even under +-30s of scheduler jitter.
func RoundToMinute(t time.Time) time.Time {
	truncated := t.Truncate(time.Minute)
	if t.Second() >= 30 {
		return truncated.Add(time.Minute)
	}
	return truncated
}

// MatchesTriggerTime reports whether the reference instant, rounded to the
// nearest minute and viewed in tz, reads exactly trigger ("HH:MM").
// An empty trigger is a plain non-match. An unknown timezone returns
// ErrUnknownTimezone so the caller can warn without aborting its pass.
func MatchesTriggerTime(ref time.Time, tz, trigger string) (bool, error) {
	if trigger == "" {
		return false, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrUnknownTimezone, tz)
	}
	local := RoundToMinute(ref).In(loc)
	return local.Format("15:04") == trigger, nil
}

// ValidateTriggerTime checks that s is a zero-padded 24-hour "HH:MM" string.
func ValidateTriggerTime(s string) error {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return errors.New("expected HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return errors.New("invalid hour")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return errors.New("invalid minute")
	}
	return nil
}

// ValidateTZ resolves tz as an IANA location name, returning the location
// for callers that need local time alongside the check.
func ValidateTZ(tz string) (*time.Location, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, tz)
	}
	return loc, nil
}
