package engine

import (
	"errors"
	"testing"
	"time"

	"alertpnl/types"
)

func rowAt(ts string) types.Row {
	parsed, err := time.Parse(types.DateTimeFormat, ts)
	if err != nil {
		panic(err)
	}
	return types.Row{Strategy: "alpha", Timestamp: parsed, TimeLabel: ts, TradeType: "buy"}
}

func labelsOf(rows []types.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.TimeLabel
	}
	return out
}

func TestFilterByTimeOfDay(t *testing.T) {
	rows := []types.Row{
		rowAt("2025-07-01 01:00:00"),
		rowAt("2025-07-01 09:30:00"),
		rowAt("2025-07-01 12:00:00"),
		rowAt("2025-07-01 16:00:00"),
		rowAt("2025-07-01 23:00:00"),
	}

	tests := []struct {
		name       string
		start, end string
		want       []string
	}{
		{
			name:  "simple inclusive range",
			start: "09:30", end: "16:00",
			want: []string{"2025-07-01 09:30:00", "2025-07-01 12:00:00", "2025-07-01 16:00:00"},
		},
		{
			name:  "window wrapping past midnight",
			start: "22:00", end: "02:00",
			want: []string{"2025-07-01 01:00:00", "2025-07-01 23:00:00"},
		},
		{
			name:  "single-padded hour accepted",
			start: "9:30", end: "16:00",
			want: []string{"2025-07-01 09:30:00", "2025-07-01 12:00:00", "2025-07-01 16:00:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterByTimeOfDay(rows, tt.start, tt.end)
			if err != nil {
				t.Fatalf("FilterByTimeOfDay() error = %v", err)
			}
			if !sameTokens(labelsOf(got), tt.want) {
				t.Errorf("FilterByTimeOfDay() = %v, want %v", labelsOf(got), tt.want)
			}
		})
	}
}

func TestFilterByTimeOfDaySecondResolution(t *testing.T) {
	rows := []types.Row{
		rowAt("2025-07-01 09:29:59"),
		rowAt("2025-07-01 16:00:00"),
		rowAt("2025-07-01 16:00:30"),
		rowAt("2025-07-01 02:00:00"),
		rowAt("2025-07-01 02:00:45"),
		rowAt("2025-07-01 22:00:00"),
	}

	tests := []struct {
		name       string
		start, end string
		want       []string
	}{
		{
			name:  "seconds past the end bound fall outside",
			start: "09:30", end: "16:00",
			want: []string{"2025-07-01 16:00:00"},
		},
		{
			name:  "wrap window end bound is exact too",
			start: "22:00", end: "02:00",
			want: []string{"2025-07-01 02:00:00", "2025-07-01 22:00:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterByTimeOfDay(rows, tt.start, tt.end)
			if err != nil {
				t.Fatalf("FilterByTimeOfDay() error = %v", err)
			}
			if !sameTokens(labelsOf(got), tt.want) {
				t.Errorf("FilterByTimeOfDay() = %v, want %v", labelsOf(got), tt.want)
			}
		})
	}
}

func TestFilterByTimeOfDayBadFormat(t *testing.T) {
	var vErr *ValidationError
	_, err := FilterByTimeOfDay(nil, "25:00", "26:00")
	if !errors.As(err, &vErr) {
		t.Fatalf("FilterByTimeOfDay() error = %v, want ValidationError", err)
	}
}

func TestFilterByDaysOfWeek(t *testing.T) {
	// 2025-07-07 is a Monday.
	rows := []types.Row{
		rowAt("2025-07-07 10:00:00"), // Mon
		rowAt("2025-07-08 10:00:00"), // Tue
		rowAt("2025-07-12 10:00:00"), // Sat
		rowAt("2025-07-13 10:00:00"), // Sun
	}

	tests := []struct {
		name    string
		days    []string
		want    []string
		wantErr bool
	}{
		{
			name: "names with abbreviations",
			days: []string{"Monday", "tue"},
			want: []string{"2025-07-07 10:00:00", "2025-07-08 10:00:00"},
		},
		{
			name: "integers Mon=0 Sun=6",
			days: []string{"5", "6"},
			want: []string{"2025-07-12 10:00:00", "2025-07-13 10:00:00"},
		},
		{
			name:    "unknown name fails",
			days:    []string{"someday"},
			wantErr: true,
		},
		{
			name:    "out of range integer fails",
			days:    []string{"7"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterByDaysOfWeek(rows, tt.days)
			if tt.wantErr {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("FilterByDaysOfWeek() error = %v, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FilterByDaysOfWeek() error = %v", err)
			}
			if !sameTokens(labelsOf(got), tt.want) {
				t.Errorf("FilterByDaysOfWeek() = %v, want %v", labelsOf(got), tt.want)
			}
		})
	}
}

func TestFilterByWeeksOfMonth(t *testing.T) {
	rows := []types.Row{
		rowAt("2025-07-01 10:00:00"), // day 1 -> bucket 1
		rowAt("2025-07-08 10:00:00"), // day 8 -> bucket 2
		rowAt("2025-07-21 10:00:00"), // day 21 -> bucket 3
		rowAt("2025-07-31 10:00:00"), // day 31 -> bucket 5
	}

	tests := []struct {
		name    string
		weeks   []int
		want    []string
		wantErr bool
	}{
		{
			name:  "bucket two keeps day eight",
			weeks: []int{2},
			want:  []string{"2025-07-08 10:00:00"},
		},
		{
			name:  "bucket five keeps day thirty-one",
			weeks: []int{5},
			want:  []string{"2025-07-31 10:00:00"},
		},
		{
			name:  "multiple buckets",
			weeks: []int{1, 3},
			want:  []string{"2025-07-01 10:00:00", "2025-07-21 10:00:00"},
		},
		{name: "zero is out of range", weeks: []int{0}, wantErr: true},
		{name: "six is out of range", weeks: []int{6}, wantErr: true},
		{name: "empty set fails", weeks: []int{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterByWeeksOfMonth(rows, tt.weeks)
			if tt.wantErr {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("FilterByWeeksOfMonth() error = %v, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FilterByWeeksOfMonth() error = %v", err)
			}
			if !sameTokens(labelsOf(got), tt.want) {
				t.Errorf("FilterByWeeksOfMonth() = %v, want %v", labelsOf(got), tt.want)
			}
		})
	}
}

func TestFilterByDateRange(t *testing.T) {
	rows := []types.Row{
		rowAt("2025-06-30 23:59:59"),
		rowAt("2025-07-01 00:00:01"),
		rowAt("2025-07-15 12:00:00"),
		rowAt("2025-07-31 23:59:59"),
		rowAt("2025-08-01 00:00:00"),
	}

	got, err := FilterByDateRange(rows, "2025-07-01", "2025-07-31")
	if err != nil {
		t.Fatalf("FilterByDateRange() error = %v", err)
	}
	want := []string{"2025-07-01 00:00:01", "2025-07-15 12:00:00", "2025-07-31 23:59:59"}
	if !sameTokens(labelsOf(got), want) {
		t.Errorf("FilterByDateRange() = %v, want %v", labelsOf(got), want)
	}
}

func TestFilterByDateRangeInverted(t *testing.T) {
	var vErr *ValidationError
	_, err := FilterByDateRange(nil, "2025-07-31", "2025-07-01")
	if !errors.As(err, &vErr) {
		t.Fatalf("FilterByDateRange() error = %v, want ValidationError", err)
	}
	if vErr.Field != "date range" {
		t.Errorf("ValidationError field = %q, want %q", vErr.Field, "date range")
	}
}

func TestFilterParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  FilterParams
		wantErr bool
	}{
		{name: "empty params valid", params: FilterParams{}},
		{
			name:   "full valid set",
			params: FilterParams{StartTime: "9:30", EndTime: "16:00", Days: []string{"mon"}, Weeks: []int{1}, StartDate: "2025-07-01", EndDate: "2025-07-31"},
		},
		{name: "start_time without end_time", params: FilterParams{StartTime: "09:30"}, wantErr: true},
		{name: "end_date without start_date", params: FilterParams{EndDate: "2025-07-31"}, wantErr: true},
		{name: "bad time format", params: FilterParams{StartTime: "930", EndTime: "16:00"}, wantErr: true},
		{name: "inverted dates", params: FilterParams{StartDate: "2025-07-31", EndDate: "2025-07-01"}, wantErr: true},
		{name: "bad weekday", params: FilterParams{Days: []string{"noday"}}, wantErr: true},
		{name: "week out of range", params: FilterParams{Weeks: []int{9}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFilterParamsValidateZeroPads(t *testing.T) {
	params := FilterParams{StartTime: "9:30", EndTime: "7:05"}
	if err := params.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if params.StartTime != "09:30" || params.EndTime != "07:05" {
		t.Errorf("normalized times = %q/%q, want 09:30/07:05", params.StartTime, params.EndTime)
	}
}

func TestApplyFiltersOrderAndComposition(t *testing.T) {
	rows := []types.Row{
		rowAt("2025-07-07 10:00:00"), // Mon, bucket 1 -> kept
		rowAt("2025-07-07 20:00:00"), // Mon but outside time window
		rowAt("2025-07-08 10:00:00"), // Tue -> dropped by weekday filter
		rowAt("2025-07-14 10:00:00"), // Mon, bucket 2 -> dropped by weeks filter
		rowAt("2025-08-04 10:00:00"), // Mon bucket 1 but outside date range
	}

	got, err := ApplyFilters(rows, FilterParams{
		StartTime: "09:00", EndTime: "16:00",
		Days:      []string{"mon"},
		Weeks:     []int{1},
		StartDate: "2025-07-01", EndDate: "2025-07-31",
	})
	if err != nil {
		t.Fatalf("ApplyFilters() error = %v", err)
	}
	want := []string{"2025-07-07 10:00:00"}
	if !sameTokens(labelsOf(got), want) {
		t.Errorf("ApplyFilters() = %v, want %v", labelsOf(got), want)
	}
}
