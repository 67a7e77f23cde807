package model

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
)

// DateLayout is the wire and log format of calendar dates
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day. It is stored through
// datatypes.Date and (un)marshals as "YYYY-MM-DD"; full RFC 3339 timestamps are
// accepted on input as well.
type Date struct {
	datatypes.Date
}

// NewDate returns the Date for the given day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Date: datatypes.Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))}
}

// ParseDate parses a "YYYY-MM-DD" or RFC 3339 string
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Date: datatypes.Date(t)}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, errors.Errorf("invalid date '%s', expected YYYY-MM-DD", s)
	}
	y, m, d := t.Date()
	return NewDate(y, m, d), nil
}

// Time returns the date as time.Time at midnight UTC
func (d Date) Time() time.Time {
	return time.Time(d.Date)
}

// String returns the date in DateLayout
func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

// MarshalJSON implements the json.Marshaler interface
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (d *Date) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return errors.New("date must be a JSON string")
	}
	parsed, err := ParseDate(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
