package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaeky/Yum-Yum-sub001/internal/domain"
)

func fridayDinner() domain.WeeklyOpeningRule {
	return domain.WeeklyOpeningRule{
		ID:          "rule-dinner",
		Weekday:     time.Friday,
		OpenMinute:  18 * 60,
		CloseMinute: 23 * 60,
		IsActive:    true,
	}
}

func TestOpenWindows_Bogota(t *testing.T) {
	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)

	// 2026-09-04 is a Friday
	date, err := ParseDate("2026-09-04", loc)
	require.NoError(t, err)

	windows := OpenWindows([]domain.WeeklyOpeningRule{fridayDinner()}, date, loc)
	require.Len(t, windows, 1)

	// Bogota is UTC-5 year round
	assert.Equal(t, time.Date(2026, 9, 4, 23, 0, 0, 0, time.UTC), windows[0].Open)
	assert.Equal(t, time.Date(2026, 9, 5, 4, 0, 0, 0, time.UTC), windows[0].Close)
	assert.Equal(t, 5*time.Hour, windows[0].Duration())
}

func TestSlotStarts_NoPartialTrailingSlot(t *testing.T) {
	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)
	date, _ := ParseDate("2026-09-04", loc)

	starts := SlotStartsForDate([]domain.WeeklyOpeningRule{fridayDinner()}, date, loc, time.Hour)
	require.Len(t, starts, 5)

	wantLocal := []string{"18:00", "19:00", "20:00", "21:00", "22:00"}
	for i, s := range starts {
		assert.Equal(t, wantLocal[i], s.In(loc).Format("15:04"))
	}

	// 90-minute slots: 18:00, 19:30, 21:00; 22:30 would spill past close
	starts = SlotStartsForDate([]domain.WeeklyOpeningRule{fridayDinner()}, date, loc, 90*time.Minute)
	require.Len(t, starts, 3)
	assert.Equal(t, "21:00", starts[2].In(loc).Format("15:04"))
}

func TestOpenWindows_FiltersRules(t *testing.T) {
	loc := time.UTC
	date, _ := ParseDate("2026-09-04", loc) // Friday

	retiredAt := time.Now()
	rules := []domain.WeeklyOpeningRule{
		fridayDinner(),
		{ID: "rule-sat", Weekday: time.Saturday, OpenMinute: 12 * 60, CloseMinute: 15 * 60, IsActive: true},
		{ID: "rule-off", Weekday: time.Friday, OpenMinute: 12 * 60, CloseMinute: 15 * 60, IsActive: false},
		{ID: "rule-retired", Weekday: time.Friday, OpenMinute: 9 * 60, CloseMinute: 11 * 60, IsActive: true, RetiredAt: &retiredAt},
	}

	windows := OpenWindows(rules, date, loc)
	require.Len(t, windows, 1)
	assert.Equal(t, time.Date(2026, 9, 4, 18, 0, 0, 0, time.UTC), windows[0].Open)
}

func TestOpenWindows_SplitService(t *testing.T) {
	loc := time.UTC
	date, _ := ParseDate("2026-09-04", loc)

	rules := []domain.WeeklyOpeningRule{
		{ID: "dinner", Weekday: time.Friday, OpenMinute: 18 * 60, CloseMinute: 22 * 60, IsActive: true},
		{ID: "lunch", Weekday: time.Friday, OpenMinute: 12 * 60, CloseMinute: 14 * 60, IsActive: true},
	}

	windows := OpenWindows(rules, date, loc)
	require.Len(t, windows, 2)
	assert.True(t, windows[0].Open.Before(windows[1].Open), "windows must be sorted by opening time")

	starts := SlotStarts(windows, time.Hour)
	require.Len(t, starts, 6) // 12,13 then 18,19,20,21
	assert.Equal(t, time.Date(2026, 9, 4, 12, 0, 0, 0, time.UTC), starts[0])
	assert.Equal(t, time.Date(2026, 9, 4, 21, 0, 0, 0, time.UTC), starts[5])
}

func TestSlotStarts_WindowShorterThanSlot(t *testing.T) {
	w := Window{
		Open:  time.Date(2026, 9, 4, 18, 0, 0, 0, time.UTC),
		Close: time.Date(2026, 9, 4, 18, 45, 0, 0, time.UTC),
	}
	assert.Empty(t, SlotStarts([]Window{w}, time.Hour))
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := ParseDate("04/09/2026", time.UTC)
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestContainsSlot(t *testing.T) {
	starts := []time.Time{
		time.Date(2026, 9, 4, 23, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, ContainsSlot(starts, starts[1]))
	assert.False(t, ContainsSlot(starts, starts[0].Add(30*time.Minute)))
}
