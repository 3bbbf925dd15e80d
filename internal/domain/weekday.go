package domain

// Weekday is the canonical day index used everywhere in the system:
// 1 = Monday … 7 = Sunday. Never 0-indexed.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// DaysPerWeek is the length of the weekly cycle.
const DaysPerWeek = 7

// Valid reports whether w is in 1..7.
func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

// Add moves w forward by n days, wrapping within 1..7.
func (w Weekday) Add(n int) Weekday {
	return Weekday(((int(w)-1+n)%DaysPerWeek+DaysPerWeek)%DaysPerWeek + 1)
}
