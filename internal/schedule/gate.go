// Package schedule implements the wall-clock gate that decides whether a
// crawl cycle may start.
package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// TimeOfDay is a clock time without a date, as seconds since midnight.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	layout := "15:04:05"
	if strings.Count(s, ":") == 1 {
		layout = "15:04"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
}

// String renders the time as HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(t)/3600, int(t)%3600/60, int(t)%60)
}

// timeOfDay extracts the TimeOfDay component of an instant.
func timeOfDay(now time.Time) TimeOfDay {
	return TimeOfDay(now.Hour()*3600 + now.Minute()*60 + now.Second())
}

// Weekdays is the set of days a window is active on. A nil set means every
// day (the "*" filter).
type Weekdays map[time.Weekday]bool

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWeekdays parses "*" or a comma-separated day list such as "mon,wed,fri".
func ParseWeekdays(s string) (Weekdays, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return nil, nil
	}
	set := make(Weekdays)
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		day, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		set[day] = true
	}
	return set, nil
}

// String renders the set in config form.
func (w Weekdays) String() string {
	if w == nil {
		return "*"
	}
	names := make([]string, 0, len(w))
	for name, day := range weekdayNames {
		if w[day] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// Window is the configured active window plus the cadence between cycle
// starts. Immutable for the process lifetime.
type Window struct {
	Start    TimeOfDay
	End      TimeOfDay
	Weekdays Weekdays
	Every    time.Duration
}

// InActiveWindow reports whether now falls inside the window. The time range
// is inclusive at both ends. A window whose start is after its end wraps
// midnight: 22:00-02:00 is active at 23:00 and at 01:00. With a nil weekday
// set only the time range matters; otherwise now's weekday must be a member.
func (w Window) InActiveWindow(now time.Time) bool {
	tod := timeOfDay(now)
	var inRange bool
	if w.Start <= w.End {
		inRange = w.Start <= tod && tod <= w.End
	} else {
		inRange = tod >= w.Start || tod <= w.End
	}
	if w.Weekdays == nil {
		return inRange
	}
	return inRange && w.Weekdays[now.Weekday()]
}
