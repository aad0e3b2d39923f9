package scheduling

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

const secondsPerDay = 24 * 60 * 60

// TimeOfDay is a clinic-local wall-clock time with second precision, stored
// as seconds since midnight. It carries no date: arithmetic wraps around
// midnight and comparisons only make sense between times on the same day.
type TimeOfDay int32

// NewTimeOfDay builds a TimeOfDay, normalising out-of-range components
// modulo 24h.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return wrap(hour*3600 + minute*60 + second)
}

func wrap(secs int) TimeOfDay {
	secs %= secondsPerDay
	if secs < 0 {
		secs += secondsPerDay
	}
	return TimeOfDay(secs)
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS". A fractional seconds part is
// truncated.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM or HH:MM:SS", s)
	}
	if len(parts) == 3 {
		parts[2], _, _ = strings.Cut(parts[2], ".")
	}

	limits := []int{23, 59, 59}
	var vals [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || len(p) == 0 || len(p) > 2 || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("invalid time %q: expected HH:MM or HH:MM:SS", s)
		}
		vals[i] = n
	}
	return NewTimeOfDay(vals[0], vals[1], vals[2]), nil
}

// MustParseTimeOfDay is ParseTimeOfDay for constants; it panics on bad input.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) Hour() int   { return int(t) / 3600 }
func (t TimeOfDay) Minute() int { return int(t) % 3600 / 60 }
func (t TimeOfDay) Second() int { return int(t) % 60 }

// AddMinutes shifts t by n minutes, wrapping within the 24h range.
func (t TimeOfDay) AddMinutes(n int) TimeOfDay {
	return wrap(int(t) + n*60)
}

func (t TimeOfDay) Before(u TimeOfDay) bool { return t < u }
func (t TimeOfDay) After(u TimeOfDay) bool  { return t > u }

// String formats t as HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// HHMM formats t as HH:MM.
func (t TimeOfDay) HHMM() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("time of day must be a string: %w", err)
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ScanTime implements pgtype.TimeScanner for TIME columns.
func (t *TimeOfDay) ScanTime(v pgtype.Time) error {
	if !v.Valid {
		return fmt.Errorf("cannot scan NULL into TimeOfDay")
	}
	*t = wrap(int(v.Microseconds / 1_000_000))
	return nil
}

// TimeValue implements pgtype.TimeValuer.
func (t TimeOfDay) TimeValue() (pgtype.Time, error) {
	return pgtype.Time{Microseconds: int64(t) * 1_000_000, Valid: true}, nil
}
