package schedule

import (
	"testing"
	"time"
)

// clockTime builds an instant on a known weekday. 2024-01-01 is a Monday.
func clockTime(t *testing.T, weekday time.Weekday, hh, mm, ss int) time.Time {
	t.Helper()
	base := time.Date(2024, 1, 1, hh, mm, ss, 0, time.UTC)
	for base.Weekday() != weekday {
		base = base.AddDate(0, 0, 1)
	}
	return base
}

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "00:00:00", want: 0},
		{in: "09:30", want: 9*3600 + 30*60},
		{in: "23:59:59", want: 23*3600 + 59*60 + 59},
		{in: "24:00", wantErr: true},
		{in: "nine", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseTimeOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q) error = %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTimeOfDay(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestTimeOfDayString(t *testing.T) {
	t.Parallel()

	tod, err := ParseTimeOfDay("09:05:01")
	if err != nil {
		t.Fatalf("ParseTimeOfDay() error = %v", err)
	}
	if got := tod.String(); got != "09:05:01" {
		t.Fatalf("String() = %q", got)
	}
}

func TestParseWeekdays(t *testing.T) {
	t.Parallel()

	if set, err := ParseWeekdays("*"); err != nil || set != nil {
		t.Fatalf("ParseWeekdays(*) = %v, %v; want nil set", set, err)
	}
	if set, err := ParseWeekdays(""); err != nil || set != nil {
		t.Fatalf("ParseWeekdays('') = %v, %v; want nil set", set, err)
	}

	set, err := ParseWeekdays("Mon, wed ,FRI")
	if err != nil {
		t.Fatalf("ParseWeekdays() error = %v", err)
	}
	if !set[time.Monday] || !set[time.Wednesday] || !set[time.Friday] {
		t.Fatalf("missing days: %v", set)
	}
	if set[time.Tuesday] || set[time.Sunday] {
		t.Fatalf("unexpected days: %v", set)
	}
	if got := set.String(); got != "fri,mon,wed" {
		t.Fatalf("String() = %q", got)
	}

	if _, err := ParseWeekdays("mon,funday"); err == nil {
		t.Fatal("expected error for unknown weekday")
	}
}

func TestInActiveWindowInclusiveBounds(t *testing.T) {
	t.Parallel()

	start, _ := ParseTimeOfDay("09:00")
	end, _ := ParseTimeOfDay("17:00")
	w := Window{Start: start, End: end}

	tests := []struct {
		hh, mm, ss int
		want       bool
	}{
		{8, 59, 59, false},
		{9, 0, 0, true},
		{12, 30, 0, true},
		{17, 0, 0, true},
		{17, 0, 1, false},
	}
	for _, tc := range tests {
		now := clockTime(t, time.Monday, tc.hh, tc.mm, tc.ss)
		if got := w.InActiveWindow(now); got != tc.want {
			t.Errorf("InActiveWindow(%02d:%02d:%02d) = %v, want %v", tc.hh, tc.mm, tc.ss, got, tc.want)
		}
	}
}

func TestInActiveWindowWrapsMidnight(t *testing.T) {
	t.Parallel()

	start, _ := ParseTimeOfDay("22:00")
	end, _ := ParseTimeOfDay("02:00")
	w := Window{Start: start, End: end}

	tests := []struct {
		hh   int
		want bool
	}{
		{23, true},
		{1, true},
		{22, true},
		{2, true},
		{3, false},
		{12, false},
		{21, false},
	}
	for _, tc := range tests {
		now := clockTime(t, time.Monday, tc.hh, 0, 0)
		if got := w.InActiveWindow(now); got != tc.want {
			t.Errorf("InActiveWindow(%02d:00) = %v, want %v", tc.hh, got, tc.want)
		}
	}
}

func TestInActiveWindowWeekdayFilter(t *testing.T) {
	t.Parallel()

	start, _ := ParseTimeOfDay("00:00")
	end, _ := ParseTimeOfDay("23:59:59")
	days, err := ParseWeekdays("tue,thu")
	if err != nil {
		t.Fatalf("ParseWeekdays() error = %v", err)
	}
	w := Window{Start: start, End: end, Weekdays: days}

	if !w.InActiveWindow(clockTime(t, time.Tuesday, 12, 0, 0)) {
		t.Fatal("expected active on tuesday")
	}
	if w.InActiveWindow(clockTime(t, time.Monday, 12, 0, 0)) {
		t.Fatal("expected inactive on monday")
	}
}
