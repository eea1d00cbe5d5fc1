package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"alertpnl/types"
)

var hhmmRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

var dayNameToNum = map[string]int{
	"monday": 0, "mon": 0,
	"tuesday": 1, "tue": 1, "tues": 1,
	"wednesday": 2, "wed": 2,
	"thursday": 3, "thu": 3, "thur": 3, "thurs": 3,
	"friday": 4, "fri": 4,
	"saturday": 5, "sat": 5,
	"sunday": 6, "sun": 6,
}

// FilterParams carries the optional time-based filters applied to a
// normalized stream. Zero values mean "not requested". Validate normalizes
// and checks every field before any row is processed.
type FilterParams struct {
	StartTime string   `json:"start_time,omitempty"` // "HH:MM", 24-hour; requires EndTime
	EndTime   string   `json:"end_time,omitempty"`   // "HH:MM", 24-hour; requires StartTime
	Days      []string `json:"days,omitempty"`       // weekday names (case-insensitive, abbreviations ok) or integers 0..6, Mon=0
	Weeks     []int    `json:"weeks,omitempty"`      // week-of-month buckets, 1..5
	StartDate string   `json:"start_date,omitempty"` // "YYYY-MM-DD", inclusive; requires EndDate
	EndDate   string   `json:"end_date,omitempty"`   // "YYYY-MM-DD", inclusive; requires StartDate
}

// Validate checks the parameter combination and normalizes time strings to
// zero-padded HH:MM. It reports a ValidationError naming the offending field.
func (p *FilterParams) Validate() error {
	if (p.StartTime != "") != (p.EndTime != "") {
		return validationErr("time window", "both start_time and end_time must be provided together")
	}
	if p.StartTime != "" {
		for _, f := range []struct {
			name  string
			value *string
		}{{"start_time", &p.StartTime}, {"end_time", &p.EndTime}} {
			norm, err := normalizeHHMM(*f.value)
			if err != nil {
				return validationErr(f.name, "%v", err)
			}
			*f.value = norm
		}
	}

	for _, d := range p.Days {
		if _, err := parseDay(d); err != nil {
			return validationErr("days", "%v", err)
		}
	}

	if p.Weeks != nil {
		if len(p.Weeks) == 0 {
			return validationErr("weeks", "provide at least one week number (1..5)")
		}
		for _, w := range p.Weeks {
			if w < 1 || w > 5 {
				return validationErr("weeks", "week numbers must be between 1 and 5, got %d", w)
			}
		}
	}

	if (p.StartDate != "") != (p.EndDate != "") {
		return validationErr("date range", "both start_date and end_date must be provided together")
	}
	if p.StartDate != "" {
		start, err := time.Parse(types.DateFormat, p.StartDate)
		if err != nil {
			return validationErr("start_date", "want YYYY-MM-DD, got %q", p.StartDate)
		}
		end, err := time.Parse(types.DateFormat, p.EndDate)
		if err != nil {
			return validationErr("end_date", "want YYYY-MM-DD, got %q", p.EndDate)
		}
		if end.Before(start) {
			return validationErr("date range", "end_date must be on or after start_date")
		}
	}
	return nil
}

func (p *FilterParams) isZero() bool {
	return p.StartTime == "" && p.EndTime == "" && p.Days == nil && p.Weeks == nil &&
		p.StartDate == "" && p.EndDate == ""
}

// ApplyFilters narrows rows through the requested predicates in fixed order:
// time of day, weekday, week of month, date range. Each stage filters the
// previous stage's output, so the requested subset composes as a logical AND.
// The input is validated before any row is touched.
func ApplyFilters(rows []types.Row, params FilterParams) ([]types.Row, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	out := make([]types.Row, len(rows))
	copy(out, rows)
	var err error

	if params.StartTime != "" {
		out, err = FilterByTimeOfDay(out, params.StartTime, params.EndTime)
		if err != nil {
			return nil, err
		}
	}
	if params.Days != nil {
		out, err = FilterByDaysOfWeek(out, params.Days)
		if err != nil {
			return nil, err
		}
	}
	if params.Weeks != nil {
		out, err = FilterByWeeksOfMonth(out, params.Weeks)
		if err != nil {
			return nil, err
		}
	}
	if params.StartDate != "" {
		out, err = FilterByDateRange(out, params.StartDate, params.EndDate)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FilterByTimeOfDay keeps rows whose wall-clock time lies in the inclusive
// [start, end] window, date-independent. A window with start after end wraps
// past midnight: rows at or after start OR at or before end are kept.
// Rows are compared at second resolution, so a row seconds past the end
// bound falls outside the window.
func FilterByTimeOfDay(rows []types.Row, startHHMM, endHHMM string) ([]types.Row, error) {
	start, err := parseHHMM(startHHMM)
	if err != nil {
		return nil, validationErr("start_time", "%v", err)
	}
	end, err := parseHHMM(endHHMM)
	if err != nil {
		return nil, validationErr("end_time", "%v", err)
	}
	startSec, endSec := start*60, end*60

	return keepRows(rows, func(row types.Row) bool {
		t := row.Timestamp.Hour()*3600 + row.Timestamp.Minute()*60 + row.Timestamp.Second()
		if startSec <= endSec {
			return t >= startSec && t <= endSec
		}
		// Window wraps past midnight.
		return t >= startSec || t <= endSec
	}), nil
}

// FilterByDaysOfWeek keeps rows whose weekday (Mon=0 .. Sun=6) is in days.
// Entries may be weekday names, common abbreviations, or integers.
func FilterByDaysOfWeek(rows []types.Row, days []string) ([]types.Row, error) {
	wanted := make(map[int]struct{}, len(days))
	for _, d := range days {
		n, err := parseDay(d)
		if err != nil {
			return nil, validationErr("days", "%v", err)
		}
		wanted[n] = struct{}{}
	}

	return keepRows(rows, func(row types.Row) bool {
		// time.Weekday has Sunday=0; shift to Monday=0.
		wd := (int(row.Timestamp.Weekday()) + 6) % 7
		_, ok := wanted[wd]
		return ok
	}), nil
}

// FilterByWeeksOfMonth keeps rows whose week-of-month bucket is in weeks.
// Buckets are 1 for days 1..7, 2 for 8..14, up to 5 for 29..31.
func FilterByWeeksOfMonth(rows []types.Row, weeks []int) ([]types.Row, error) {
	if len(weeks) == 0 {
		return nil, validationErr("weeks", "provide at least one week number (1..5)")
	}
	wanted := make(map[int]struct{}, len(weeks))
	for _, w := range weeks {
		if w < 1 || w > 5 {
			return nil, validationErr("weeks", "week numbers must be between 1 and 5, got %d", w)
		}
		wanted[w] = struct{}{}
	}

	return keepRows(rows, func(row types.Row) bool {
		bucket := ((row.Timestamp.Day() - 1) / 7) + 1
		_, ok := wanted[bucket]
		return ok
	}), nil
}

// FilterByDateRange keeps rows whose calendar date lies in [start, end],
// inclusive. Both rows and bounds are compared on the date alone, never
// time of day.
func FilterByDateRange(rows []types.Row, startDate, endDate string) ([]types.Row, error) {
	start, err := time.Parse(types.DateFormat, startDate)
	if err != nil {
		return nil, validationErr("start_date", "want YYYY-MM-DD, got %q", startDate)
	}
	end, err := time.Parse(types.DateFormat, endDate)
	if err != nil {
		return nil, validationErr("end_date", "want YYYY-MM-DD, got %q", endDate)
	}
	if end.Before(start) {
		return nil, validationErr("date range", "end_date must be on or after start_date")
	}

	return keepRows(rows, func(row types.Row) bool {
		d := truncateToDate(row.Timestamp)
		return !d.Before(start) && !d.After(end)
	}), nil
}

func keepRows(rows []types.Row, keep func(types.Row) bool) []types.Row {
	out := make([]types.Row, 0, len(rows))
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// parseHHMM parses "H:MM" or "HH:MM" into minutes since midnight.
func parseHHMM(s string) (int, error) {
	m := hhmmRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("want HH:MM (24-hour), got %q", s)
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if hh > 23 || mm > 59 {
		return 0, fmt.Errorf("hour must be 0..23 and minute 0..59, got %q", s)
	}
	return hh*60 + mm, nil
}

// normalizeHHMM validates a time string and zero-pads it ("9:5" is invalid,
// "9:30" becomes "09:30").
func normalizeHHMM(s string) (string, error) {
	mins, err := parseHHMM(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60), nil
}

// parseDay resolves a weekday name, abbreviation or integer string to the
// Mon=0 .. Sun=6 numbering.
func parseDay(d string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(d))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("weekday integers must be in 0..6 (Mon=0), got %d", n)
		}
		return n, nil
	}
	if n, ok := dayNameToNum[s]; ok {
		return n, nil
	}
	return 0, fmt.Errorf("unrecognized day name %q", d)
}
