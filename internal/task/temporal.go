package task

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	NoDate  = "no date"
	NoStart = "no start"
	NoEnd   = "no end"

	// DefaultEnd is used when a deadline is entered without an end time.
	DefaultEnd = "2359"

	dateConstraint = "task date must be DDMMYY, DD-MM-YY or DD/MM/YY"
	timeConstraint = "task %s time can be entered in 24hour (1600) or 12hour (4pm, 4.30pm) format"
)

var (
	dateRe    = regexp.MustCompile(`^(\d{2})[-/]?(\d{2})[-/]?(\d{2})$`)
	clock24Re = regexp.MustCompile(`^([01]\d|2[0-3])([0-5]\d)$`)
	clock12Re = regexp.MustCompile(`^(1[0-2]|[1-9])(?:\.([0-5]\d))?(am|pm)$`)
)

// Date is a calendar day in canonical DDMMYY form. The zero value means
// "no date".
type Date struct {
	value string
}

// ParseDate validates raw date text. Separators must be consistent.
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, NoDate) {
		return Date{}, nil
	}
	m := dateRe.FindStringSubmatch(raw)
	if m == nil || len(raw) == 7 || (len(raw) == 8 && raw[2] != raw[5]) {
		return Date{}, &ValidationError{Field: "date", Err: errors.New(dateConstraint)}
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	t := time.Date(2000+year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return Date{}, &ValidationError{Field: "date", Err: fmt.Errorf("%s is not a calendar day", raw)}
	}
	return Date{value: m[1] + m[2] + m[3]}, nil
}

// DateOf returns the Date for the local calendar day of t.
func DateOf(t time.Time) Date {
	return Date{value: t.Format("020106")}
}

func (d Date) IsSet() bool { return d.value != "" }

func (d Date) String() string {
	if d.value == "" {
		return NoDate
	}
	return d.value
}

// key orders dates chronologically (YYMMDD).
func (d Date) key() string {
	if d.value == "" {
		return ""
	}
	return d.value[4:6] + d.value[2:4] + d.value[0:2]
}

// Compare orders an absent date before any concrete one.
func (d Date) Compare(o Date) int {
	return strings.Compare(d.key(), o.key())
}

// DayRelation compares the date with the local day of now: -1 before
// today, 0 today, 1 after. Absent dates report 1.
func (d Date) DayRelation(now time.Time) int {
	if !d.IsSet() {
		return 1
	}
	return d.Compare(DateOf(now))
}

// Start is a clock time in 24-hour HHMM form. The zero value means
// "no start".
type Start struct {
	value string
}

func ParseStart(raw string) (Start, error) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, NoStart) {
		return Start{}, nil
	}
	v, err := normalizeClock(raw, "start")
	if err != nil {
		return Start{}, err
	}
	return Start{value: v}, nil
}

func (s Start) IsSet() bool { return s.value != "" }

func (s Start) String() string {
	if s.value == "" {
		return NoStart
	}
	return s.value
}

func (s Start) Compare(o Start) int { return strings.Compare(s.value, o.value) }

// Before reports whether s is strictly earlier than e. Either side absent
// reports true.
func (s Start) Before(e End) bool {
	if !s.IsSet() || !e.IsSet() {
		return true
	}
	return s.value < e.value
}

// End is a clock time in 24-hour HHMM form. The zero value means
// "no end".
type End struct {
	value string
}

// ParseEnd validates raw end text. Empty input yields DefaultEnd.
func ParseEnd(raw string) (End, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return End{value: DefaultEnd}, nil
	}
	if strings.EqualFold(raw, NoEnd) {
		return End{}, nil
	}
	v, err := normalizeClock(raw, "end")
	if err != nil {
		return End{}, err
	}
	return End{value: v}, nil
}

func (e End) IsSet() bool { return e.value != "" }

func (e End) String() string {
	if e.value == "" {
		return NoEnd
	}
	return e.value
}

func (e End) Compare(o End) int { return strings.Compare(e.value, o.value) }

// PassedAt reports whether the end time is strictly earlier than the clock
// time of now. It is evaluated on every call.
func (e End) PassedAt(now time.Time) bool {
	if !e.IsSet() {
		return false
	}
	return e.value < now.Format("1504")
}

func normalizeClock(raw, field string) (string, error) {
	lower := strings.ToLower(raw)
	if clock24Re.MatchString(lower) {
		return lower, nil
	}
	m := clock12Re.FindStringSubmatch(lower)
	if m == nil {
		return "", &ValidationError{Field: field, Err: fmt.Errorf(timeConstraint, field)}
	}
	hour, _ := strconv.Atoi(m[1])
	minutes := m[2]
	if minutes == "" {
		minutes = "00"
	}
	switch {
	case m[3] == "am" && hour == 12:
		hour = 0
	case m[3] == "pm" && hour != 12:
		hour += 12
	}
	return fmt.Sprintf("%02d%s", hour, minutes), nil
}
