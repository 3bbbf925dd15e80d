package schedule

import (
	"alcyxob/coaching-plans/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekdayFromTime(t *testing.T) {
	cases := map[time.Weekday]domain.Weekday{
		time.Monday:    domain.Monday,
		time.Tuesday:   domain.Tuesday,
		time.Wednesday: domain.Wednesday,
		time.Thursday:  domain.Thursday,
		time.Friday:    domain.Friday,
		time.Saturday:  domain.Saturday,
		time.Sunday:    domain.Sunday,
	}
	for in, want := range cases {
		assert.Equal(t, want, WeekdayFromTime(in), in.String())
	}
}

func TestCurrentWeekdayUsesBusinessTimezone(t *testing.T) {
	// Sunday 23:30 UTC in January is already Monday 00:30 in Belgrade (UTC+1).
	sundayNightUTC := time.Date(2026, time.January, 4, 23, 30, 0, 0, time.UTC)
	r := NewWeekdayResolver(FixedClock(sundayNightUTC))
	assert.Equal(t, domain.Monday, r.CurrentWeekday())

	// A viewer in New York on Monday evening local time is already on Tuesday in Belgrade.
	ny, err := time.LoadLocation("America/New_York")
	if assert.NoError(t, err) {
		mondayEveningNY := time.Date(2026, time.January, 5, 19, 0, 0, 0, ny)
		r = NewWeekdayResolver(FixedClock(mondayEveningNY))
		assert.Equal(t, domain.Tuesday, r.CurrentWeekday())
	}
}

func TestCurrentWeekdayAcrossDST(t *testing.T) {
	// Summer time: UTC+2. Saturday 22:15 UTC is Sunday 00:15 in Belgrade.
	r := NewWeekdayResolver(FixedClock(time.Date(2026, time.July, 4, 22, 15, 0, 0, time.UTC)))
	assert.Equal(t, domain.Sunday, r.CurrentWeekday())
	assert.Equal(t, BusinessTimezone, r.Now().Location().String())
}

func TestNewWeekdayResolverDefaultsToSystemClock(t *testing.T) {
	r := NewWeekdayResolver(nil)
	assert.True(t, r.CurrentWeekday().Valid())
}

func TestWeekdayName(t *testing.T) {
	assert.Equal(t, "Monday", WeekdayName(domain.Monday, domain.LocaleEN))
	assert.Equal(t, "Nedelja", WeekdayName(domain.Sunday, domain.LocaleSR))
	assert.Equal(t, "Среда", WeekdayName(domain.Wednesday, domain.LocaleRU))

	// Unknown locale falls back to the default table.
	assert.Equal(t, "Utorak", WeekdayName(domain.Tuesday, domain.Locale("de")))

	assert.Equal(t, "", WeekdayName(0, domain.LocaleEN))
	assert.Equal(t, "", WeekdayName(8, domain.LocaleEN))
}

func TestWeekdayAddWraps(t *testing.T) {
	assert.Equal(t, domain.Monday, domain.Sunday.Add(1))
	assert.Equal(t, domain.Sunday, domain.Monday.Add(-1))
	assert.Equal(t, domain.Tuesday, domain.Tuesday.Add(7))
	assert.Equal(t, domain.Saturday, domain.Monday.Add(12))
}
