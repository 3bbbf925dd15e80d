package schedule

import (
	"alcyxob/coaching-plans/internal/domain"
	"sort"
)

// TodayResult is what a viewer sees for "today".
type TodayResult struct {
	Day       *domain.DayWithItems // nil when no Day maps to today
	IsRestDay bool                 // true when Day is nil or has no Items
}

// NextWorkout is the first populated Day after today.
type NextWorkout struct {
	Day     *domain.DayWithItems
	Weekday domain.Weekday
}

// dayLookup maps a canonical weekday to the Day shown for it.
type dayLookup struct {
	byWeekday  map[domain.Weekday]*domain.DayWithItems
	positional []*domain.DayWithItems // set only when no Day carries a weekday
}

func newDayLookup(days []domain.DayWithItems) dayLookup {
	ordered := make([]*domain.DayWithItems, len(days))
	for i := range days {
		ordered[i] = &days[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SortOrder < ordered[j].SortOrder })

	lk := dayLookup{byWeekday: make(map[domain.Weekday]*domain.DayWithItems)}
	anyWeekday := false
	for _, d := range ordered {
		if d.Weekday == nil {
			continue
		}
		anyWeekday = true
		w := *d.Weekday
		if !w.Valid() {
			continue
		}
		// Ordered by sortOrder, so the first Day seen for a duplicated weekday wins.
		if _, taken := lk.byWeekday[w]; !taken {
			lk.byWeekday[w] = d
		}
	}
	if !anyWeekday {
		lk.positional = ordered
	}
	return lk
}

func (lk dayLookup) dayFor(w domain.Weekday) *domain.DayWithItems {
	if !w.Valid() {
		return nil
	}
	if n := len(lk.positional); n > 0 {
		return lk.positional[(int(w)-1)%n]
	}
	return lk.byWeekday[w]
}

// ResolveToday finds the Day displayed for today.
//
// Days are matched on their weekday. Plans whose Days carry no weekday at all
// are treated as a repeating sequence ordered by sortOrder: position
// ((today-1) mod n)+1 is shown.
func ResolveToday(days []domain.DayWithItems, today domain.Weekday) TodayResult {
	d := newDayLookup(days).dayFor(today)
	return TodayResult{Day: d, IsRestDay: d == nil || d.IsRestDay()}
}

// ResolveNextWorkout probes today+1 … today+7 (wrapping) and returns the first
// Day with at least one Item, or nil when every Day is a rest day.
func ResolveNextWorkout(days []domain.DayWithItems, today domain.Weekday) *NextWorkout {
	return nextWorkout(newDayLookup(days), today, nil)
}

// nextWorkout is ResolveNextWorkout with an optional probe observer.
func nextWorkout(lk dayLookup, today domain.Weekday, probe func(domain.Weekday)) *NextWorkout {
	if !today.Valid() {
		return nil
	}
	for offset := 1; offset <= domain.DaysPerWeek; offset++ {
		w := today.Add(offset)
		if probe != nil {
			probe(w)
		}
		if d := lk.dayFor(w); d != nil && !d.IsRestDay() {
			return &NextWorkout{Day: d, Weekday: w}
		}
	}
	return nil
}
