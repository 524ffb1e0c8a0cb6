package classify

import (
	"sort"
	"time"

	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/timefmt"
)

// Bucket is one of the date groups used by list views.
type Bucket string

const (
	BucketToday     Bucket = "today"
	BucketYesterday Bucket = "yesterday"
	BucketThisWeek  Bucket = "thisWeek"
	BucketOlder     Bucket = "older"
)

// Buckets lists the date groups in display order.
var Buckets = []Bucket{BucketToday, BucketYesterday, BucketThisWeek, BucketOlder}

// Label returns the heading shown above a bucket.
func (b Bucket) Label() string {
	switch b {
	case BucketToday:
		return "Today"
	case BucketYesterday:
		return "Yesterday"
	case BucketThisWeek:
		return "This week"
	default:
		return "Older"
	}
}

// DateGroups partitions a list by calendar day relative to now.
type DateGroups struct {
	Today     []model.Notification
	Yesterday []model.Notification
	ThisWeek  []model.Notification
	Older     []model.Notification
}

// Get returns the members of bucket b.
func (g DateGroups) Get(b Bucket) []model.Notification {
	switch b {
	case BucketToday:
		return g.Today
	case BucketYesterday:
		return g.Yesterday
	case BucketThisWeek:
		return g.ThisWeek
	default:
		return g.Older
	}
}

// Len returns the total number of grouped notifications.
func (g DateGroups) Len() int {
	return len(g.Today) + len(g.Yesterday) + len(g.ThisWeek) + len(g.Older)
}

// BucketFor classifies a timestamp using calendar-day boundaries in now's
// location: same date is today, one date earlier is yesterday, within the
// last seven days is this week, anything else is older.
func BucketFor(createdAt, now time.Time) Bucket {
	loc := now.Location()
	switch timefmt.DaysBetween(createdAt, now, loc) {
	case 0:
		return BucketToday
	case 1:
		return BucketYesterday
	}
	if !createdAt.Before(now.AddDate(0, 0, -7)) {
		return BucketThisWeek
	}
	return BucketOlder
}

// GroupByDate places every notification in exactly one bucket, preserving
// input order within each bucket.
func GroupByDate(list []model.Notification, now time.Time) DateGroups {
	var g DateGroups
	for _, n := range list {
		switch BucketFor(n.CreatedAt, now) {
		case BucketToday:
			g.Today = append(g.Today, n)
		case BucketYesterday:
			g.Yesterday = append(g.Yesterday, n)
		case BucketThisWeek:
			g.ThisWeek = append(g.ThisWeek, n)
		default:
			g.Older = append(g.Older, n)
		}
	}
	return g
}

// CanonicalFilter folds the category and priority predicates of f the same
// way notifications are folded, so raw user input compares equal.
func CanonicalFilter(f model.Filter) model.Filter {
	if f.Category != nil {
		f.Category = model.Ptr(NormalizeCategory(string(*f.Category)))
	}
	if f.Priority != nil {
		f.Priority = model.Ptr(NormalizePriority(string(*f.Priority)))
	}
	return f
}

// FilterBy keeps the notifications that satisfy every filter (AND). Nil
// fields in a filter impose no constraint; Limit is ignored.
func FilterBy(list []model.Notification, filters ...model.Filter) []model.Notification {
	canon := make([]model.Filter, len(filters))
	for i, f := range filters {
		canon[i] = CanonicalFilter(f)
	}
	out := make([]model.Notification, 0, len(list))
	for _, n := range list {
		keep := true
		for _, f := range canon {
			if !f.Matches(n) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, n)
		}
	}
	return out
}

// SortByDateDesc returns a copy of list ordered newest first. Equal
// timestamps keep their input order.
func SortByDateDesc(list []model.Notification) []model.Notification {
	out := make([]model.Notification, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
