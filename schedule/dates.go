package schedule

import "time"

const DateLayout = "2006-01-02"

// Midnight truncates t to the start of its calendar day in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// SameDate reports whether t falls on day's calendar date, read in day's location.
func SameDate(day, t time.Time) bool {
	y1, m1, d1 := day.Date()
	y2, m2, d2 := t.In(day.Location()).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// DaysBetween counts whole calendar days from start to end, ignoring clock time.
func DaysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}

// AddDays moves a calendar date by n days keeping its location.
func AddDays(date time.Time, n int) time.Time {
	return date.AddDate(0, 0, n)
}

// At places a wall-clock time on the given calendar date.
func At(date time.Time, hour, minute int) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, date.Location())
}
