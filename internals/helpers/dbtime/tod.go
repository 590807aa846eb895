// file: internals/helpers/dbtime/tod.go
package dbtime

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Tod is a wall-clock time of day, counted in minutes after midnight.
// 24:00 is accepted so it can close a day-long range.
type Tod int

const EndOfDay Tod = 24 * 60

// ParseTod accepts "HH:MM" or "HH:MM:SS" (seconds are dropped).
func ParseTod(s string) (Tod, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("tod: invalid time %q (want HH:MM)", s)
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || m < 0 || m > 59 {
		return 0, fmt.Errorf("tod: invalid time %q (want HH:MM)", s)
	}
	t := Tod(h*60 + m)
	if t > EndOfDay {
		return 0, fmt.Errorf("tod: time %q out of range", s)
	}
	return t, nil
}

// MustTod is ParseTod for compile-time constants.
func MustTod(s string) Tod {
	t, err := ParseTod(s)
	if err != nil {
		panic(err)
	}
	return t
}

// From takes the wall clock of t, dropping date and zone.
func From(t time.Time) Tod {
	return Tod(t.Hour()*60 + t.Minute())
}

func (t Tod) Hour() int   { return int(t) / 60 }
func (t Tod) Minute() int { return int(t) % 60 }

func (t Tod) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Add shifts by d, saturating at EndOfDay.
func (t Tod) Add(d time.Duration) Tod {
	out := t + Tod(d/time.Minute)
	if out > EndOfDay {
		return EndOfDay
	}
	if out < 0 {
		return 0
	}
	return out
}

// On combines a calendar date with this time of day in loc.
func (t Tod) On(day time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc)
}

// Scan accepts time.Time or "HH:MM[:SS]" from a postgres TIME column.
func (t *Tod) Scan(v any) error {
	switch x := v.(type) {
	case time.Time:
		*t = From(x)
		return nil
	case []byte:
		return t.parse(string(x))
	case string:
		return t.parse(x)
	case nil:
		*t = 0
		return nil
	default:
		return fmt.Errorf("tod: unsupported Scan type %T", v)
	}
}

func (t *Tod) parse(s string) error {
	p, err := ParseTod(s)
	if err != nil {
		return err
	}
	*t = p
	return nil
}

// Value sends "HH:MM:SS" so postgres TIME understands it.
func (t Tod) Value() (driver.Value, error) {
	if t >= EndOfDay {
		return "24:00:00", nil
	}
	return t.String() + ":00", nil
}

func (t Tod) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tod) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return t.parse(s)
}
