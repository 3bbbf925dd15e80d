package schedule

import (
	"alcyxob/coaching-plans/internal/domain"
	"log"
	"time"
	_ "time/tzdata" // Embed the tz database so the business zone never depends on the host
)

// BusinessTimezone is where the coaching business operates. "Today" is always
// computed here, never in the viewer's timezone.
const BusinessTimezone = "Europe/Belgrade"

var businessLocation = loadBusinessLocation()

func loadBusinessLocation() *time.Location {
	loc, err := time.LoadLocation(BusinessTimezone)
	if err != nil {
		// Only reachable if the embedded tzdata is stripped from the build.
		log.Printf("ERROR: Failed to load timezone %s, falling back to CET: %v", BusinessTimezone, err)
		return time.FixedZone("CET", 1*60*60)
	}
	return loc
}

// Location returns the business timezone.
func Location() *time.Location {
	return businessLocation
}

// WeekdayFromTime converts Go's 0=Sunday numbering into the canonical 1..7 Weekday.
// No other code may convert time.Weekday values.
func WeekdayFromTime(d time.Weekday) domain.Weekday {
	if d == time.Sunday {
		return domain.Sunday
	}
	return domain.Weekday(d)
}

// WeekdayResolver answers "what weekday is it for the business right now".
type WeekdayResolver struct {
	clock Clock
}

// NewWeekdayResolver creates a resolver; a nil clock means the system clock.
func NewWeekdayResolver(clock Clock) *WeekdayResolver {
	if clock == nil {
		clock = SystemClock{}
	}
	return &WeekdayResolver{clock: clock}
}

// Now returns the current instant in the business timezone.
func (r *WeekdayResolver) Now() time.Time {
	return r.clock.Now().In(businessLocation)
}

// CurrentWeekday returns today's canonical weekday in the business timezone.
func (r *WeekdayResolver) CurrentWeekday() domain.Weekday {
	return WeekdayFromTime(r.Now().Weekday())
}

// Fixed seven-entry tables; index 0 is Monday.
var weekdayNames = map[domain.Locale][domain.DaysPerWeek]string{
	domain.LocaleSR: {"Ponedeljak", "Utorak", "Sreda", "Četvrtak", "Petak", "Subota", "Nedelja"},
	domain.LocaleEN: {"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"},
	domain.LocaleRU: {"Понедельник", "Вторник", "Среда", "Четверг", "Пятница", "Суббота", "Воскресенье"},
}

// WeekdayName returns the display name of w in locale. Unknown locales use the
// default locale's table; an out-of-range weekday yields "".
func WeekdayName(w domain.Weekday, locale domain.Locale) string {
	if !w.Valid() {
		return ""
	}
	names, ok := weekdayNames[locale]
	if !ok {
		names = weekdayNames[domain.DefaultLocale]
	}
	return names[w-1]
}
