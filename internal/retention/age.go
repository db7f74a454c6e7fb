package retention

import "time"

// AgeInDays returns the number of calendar days from created's date to now's
// date. Both are read as wall-clock dates in their own locations; the time of
// day is ignored. The result is negative when created is dated after now.
func AgeInDays(created, now time.Time) int {
	cy, cm, cd := created.Date()
	ny, nm, nd := now.Date()

	c := time.Date(cy, cm, cd, 0, 0, 0, 0, time.UTC)
	n := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)

	return int(n.Sub(c).Hours() / 24)
}

// Expired reports whether a snapshot created at created has outlived a window
// of retentionDays as of now.
func Expired(created, now time.Time, retentionDays int) bool {
	return AgeInDays(created, now) > retentionDays
}
