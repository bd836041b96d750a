package booking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day without time of day or zone. The zero value means unknown.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	// time.Date normalizes out-of-range values (Feb 30 -> Mar 2)
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	year, month, day := t.Date()
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate accepts YYYY-MM-DD, RFC 3339 timestamps (date part), DD/MM/YYYY
// and epoch milliseconds.
func ParseDate(value string) (Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Date{}, fmt.Errorf("empty date")
	}

	if len(value) >= len(dateLayout) {
		if t, err := time.Parse(dateLayout, value[:len(dateLayout)]); err == nil {
			return DateOf(t), nil
		}
	}

	if t, err := time.Parse("02/01/2006", value); err == nil {
		return DateOf(t), nil
	}

	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return DateOf(time.UnixMilli(ms).UTC()), nil
	}

	return Date{}, fmt.Errorf("unrecognized date %q", value)
}

func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON never fails: unreadable dates decode to the zero Date.
func (d *Date) UnmarshalJSON(data []byte) error {
	*d = decodeDate(data)
	return nil
}

func decodeDate(data []byte) Date {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Date{}
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseDate(s)
		if err != nil {
			return Date{}
		}
		return parsed
	}

	var ms float64
	if err := json.Unmarshal(data, &ms); err == nil {
		return DateOf(time.UnixMilli(int64(ms)).UTC())
	}

	// {"$date": ...} as emitted by extended JSON exports
	var wrapped struct {
		Date json.RawMessage `json:"$date"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Date != nil {
		return decodeDate(wrapped.Date)
	}

	return Date{}
}
