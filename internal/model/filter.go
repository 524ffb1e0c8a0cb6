package model

import (
	"strconv"
	"strings"
)

// Filter selects notifications. Nil fields impose no constraint. It doubles
// as the query for GET /notifications and as the cache signature key.
type Filter struct {
	Category   *Category
	Priority   *Priority
	IsRead     *bool
	IsArchived *bool
	Limit      int
}

// Signature returns a stable string identifying the filter, used to key
// fetch generations.
func (f Filter) Signature() string {
	var b strings.Builder
	if f.Category != nil {
		b.WriteString("category=" + string(*f.Category) + ";")
	}
	if f.Priority != nil {
		b.WriteString("priority=" + string(*f.Priority) + ";")
	}
	if f.IsRead != nil {
		b.WriteString("is_read=" + strconv.FormatBool(*f.IsRead) + ";")
	}
	if f.IsArchived != nil {
		b.WriteString("is_archived=" + strconv.FormatBool(*f.IsArchived) + ";")
	}
	if f.Limit > 0 {
		b.WriteString("limit=" + strconv.Itoa(f.Limit) + ";")
	}
	return b.String()
}

// Matches reports whether n satisfies every predicate in f. Limit is ignored.
func (f Filter) Matches(n Notification) bool {
	if f.Category != nil && n.Category != *f.Category {
		return false
	}
	if f.Priority != nil && n.Priority != *f.Priority {
		return false
	}
	if f.IsRead != nil && n.IsRead != *f.IsRead {
		return false
	}
	if f.IsArchived != nil && n.IsArchived != *f.IsArchived {
		return false
	}
	return true
}

// Ptr returns a pointer to v. Handy for building filters.
func Ptr[T any](v T) *T {
	return &v
}
