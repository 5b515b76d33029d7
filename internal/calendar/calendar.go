package calendar

import (
	"sort"
	"time"

	"github.com/kaeky/Yum-Yum-sub001/internal/domain"
)

// DateLayout is the wire format for calendar dates in requests.
const DateLayout = "2006-01-02"

// Window is a contiguous open interval of a single service day.
// Open and Close are UTC instants derived from the restaurant's
// local wall-clock rules.
type Window struct {
	Open  time.Time
	Close time.Time
}

// Duration returns the length of the window.
func (w Window) Duration() time.Duration {
	return w.Close.Sub(w.Open)
}

// ParseDate parses a calendar date in the restaurant's location.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, domain.ErrInvalidDate
	}
	return t, nil
}

// OpenWindows derives the open intervals for one calendar date from the
// restaurant's weekly rules. Only active rules matching the date's weekday
// contribute. Rule minutes are wall-clock offsets from local midnight, so
// the instants come out right across DST changes. Windows are returned
// sorted by opening time in UTC.
func OpenWindows(rules []domain.WeeklyOpeningRule, date time.Time, loc *time.Location) []Window {
	if loc == nil {
		loc = time.UTC
	}
	year, month, day := date.Date()
	weekday := time.Date(year, month, day, 0, 0, 0, 0, loc).Weekday()

	var windows []Window
	for _, rule := range rules {
		if !rule.Active() || rule.Weekday != weekday {
			continue
		}
		open := time.Date(year, month, day, rule.OpenMinute/60, rule.OpenMinute%60, 0, 0, loc)
		close := time.Date(year, month, day, rule.CloseMinute/60, rule.CloseMinute%60, 0, 0, loc)
		if !close.After(open) {
			continue
		}
		windows = append(windows, Window{Open: open.UTC(), Close: close.UTC()})
	}

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].Open.Before(windows[j].Open)
	})
	return windows
}

// SlotStarts discretizes open windows into bookable slot starts.
// A start is emitted only when the whole slot fits inside its window,
// so no partial trailing slot is ever offered.
func SlotStarts(windows []Window, slotDuration time.Duration) []time.Time {
	if slotDuration <= 0 {
		return nil
	}
	var starts []time.Time
	for _, w := range windows {
		for s := w.Open; !s.Add(slotDuration).After(w.Close); s = s.Add(slotDuration) {
			starts = append(starts, s)
		}
	}
	return starts
}

// SlotStartsForDate combines OpenWindows and SlotStarts for one date.
func SlotStartsForDate(rules []domain.WeeklyOpeningRule, date time.Time, loc *time.Location, slotDuration time.Duration) []time.Time {
	return SlotStarts(OpenWindows(rules, date, loc), slotDuration)
}

// ContainsSlot reports whether candidate is one of the derived slot
// starts. Used to reject commit requests for instants the calendar
// never offered.
func ContainsSlot(starts []time.Time, candidate time.Time) bool {
	for _, s := range starts {
		if s.Equal(candidate) {
			return true
		}
	}
	return false
}
