// Package timefmt converts absolute timestamps into the relative labels and
// recency predicates used by the notification views. Every function takes
// "now" explicitly so results are deterministic.
package timefmt

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Relative returns a compact label such as "just now", "5m ago", "3h ago",
// "2d ago" or "3w ago". Timestamps in the future are labelled "just now".
func Relative(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	case d < 365*24*time.Hour:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// Human returns a long-form label ("3 minutes ago", "2 days from now").
func Human(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// IsRecent reports whether t lies within the window before now.
func IsRecent(t, now time.Time, within time.Duration) bool {
	if t.IsZero() || t.After(now) {
		return false
	}
	return now.Sub(t) <= within
}

// IsExpired reports whether an expiry timestamp has passed. A zero expiry
// never expires.
func IsExpired(expiresAt, now time.Time) bool {
	if expiresAt.IsZero() {
		return false
	}
	return !now.Before(expiresAt)
}

// DayStart truncates t to midnight in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DayStart(a, loc).Equal(DayStart(b, loc))
}

// DaysBetween returns the number of calendar days from a to b in loc,
// negative when b precedes a.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	da := DayStart(a, loc)
	db := DayStart(b, loc)
	// Go through UTC dates so DST transitions do not skew the division.
	ua := time.Date(da.Year(), da.Month(), da.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(db.Year(), db.Month(), db.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// FormatStamp renders an absolute timestamp for detail views.
func FormatStamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("Mon Jan 2 2006, 15:04")
}
