package models

import "time"

// DateOf truncates a timestamp to its calendar date at UTC midnight.
// All scheduling math in the engine works on whole days.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
