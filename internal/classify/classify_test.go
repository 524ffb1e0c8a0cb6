package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notification-center/internal/model"
)

var now = time.Date(2026, 3, 18, 14, 30, 0, 0, time.UTC)

func note(id string, createdAt time.Time) model.Notification {
	return model.Notification{ID: id, Category: model.CategorySystem, Priority: model.PriorityMedium, CreatedAt: createdAt}
}

func TestNormalizeCategory_LegacyCasing(t *testing.T) {
	for _, raw := range []string{"PATIENT_PAIN_REPORT", "patient_pain_report", "Patient-Pain-Report", " pain_report "} {
		assert.Equal(t, model.CategoryPainReport, NormalizeCategory(raw), raw)
	}
	assert.Equal(t, model.CategoryNewPatientRequest, NormalizeCategory("NEW_PATIENT_REQUEST"))
	assert.Equal(t, model.Category("billing"), NormalizeCategory("Billing"))
}

func TestLegacyCategoryEquivalence(t *testing.T) {
	upper := model.Notification{Category: "PATIENT_PAIN_REPORT", Priority: "low"}
	lower := model.Notification{Category: "patient_pain_report", Priority: "low"}

	assert.Equal(t, IconFor(upper.Category), IconFor(lower.Category))
	assert.Equal(t, IconAlert, IconFor(upper.Category))
	assert.Equal(t, IsElevated(upper), IsElevated(lower))
	assert.True(t, IsElevated(upper))
}

func TestIconFor_UnknownFallsBack(t *testing.T) {
	assert.Equal(t, IconBell, IconFor("something-new"))
	assert.Equal(t, IconPill, IconFor(model.CategoryPrescriptionUpdated))
	assert.Equal(t, IconMessage, IconFor("MESSAGE"))
}

func TestPriorityStyleClass(t *testing.T) {
	assert.Equal(t, StyleLow, PriorityStyleClass(model.PriorityLow))
	assert.Equal(t, StyleMedium, PriorityStyleClass(model.PriorityMedium))
	assert.Equal(t, StyleHigh, PriorityStyleClass("HIGH"))
	assert.Equal(t, StyleUrgent, PriorityStyleClass(model.PriorityUrgent))
	assert.Equal(t, StyleMedium, PriorityStyleClass("critical"))
	assert.Equal(t, StyleMedium, PriorityStyleClass(""))
}

func TestRequiresActionAndTarget(t *testing.T) {
	n := model.Notification{Metadata: map[string]any{
		model.MetaActionRequired: true,
		model.MetaActionURL:      "/requests",
	}}
	assert.True(t, RequiresAction(n))
	target, ok := ActionTarget(n)
	assert.True(t, ok)
	assert.Equal(t, "/requests", target)

	truthyString := model.Notification{Metadata: map[string]any{model.MetaActionRequired: "true"}}
	assert.False(t, RequiresAction(truthyString))

	_, ok = ActionTarget(model.Notification{})
	assert.False(t, ok)
}

func TestBucketFor_CalendarBoundaries(t *testing.T) {
	assert.Equal(t, BucketToday, BucketFor(time.Date(2026, 3, 18, 0, 0, 1, 0, time.UTC), now))
	// 15 hours ago but on the previous date: yesterday, not today.
	assert.Equal(t, BucketYesterday, BucketFor(time.Date(2026, 3, 17, 23, 30, 0, 0, time.UTC), now))
	assert.Equal(t, BucketYesterday, BucketFor(time.Date(2026, 3, 17, 0, 10, 0, 0, time.UTC), now))
	assert.Equal(t, BucketThisWeek, BucketFor(time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC), now))
	assert.Equal(t, BucketThisWeek, BucketFor(now.AddDate(0, 0, -7), now))
	assert.Equal(t, BucketOlder, BucketFor(now.AddDate(0, 0, -7).Add(-time.Minute), now))
}

func TestGroupByDate_PartitionsInput(t *testing.T) {
	list := []model.Notification{
		note("a", now.Add(-time.Hour)),
		note("b", now.AddDate(0, 0, -1)),
		note("c", now.AddDate(0, 0, -3)),
		note("d", now.AddDate(0, -2, 0)),
		note("e", now.Add(-10*time.Minute)),
		note("f", now.AddDate(-1, 0, 0)),
	}

	groups := GroupByDate(SortByDateDesc(list), now)
	require.Equal(t, len(list), groups.Len())

	seen := map[string]int{}
	for _, b := range Buckets {
		for _, n := range groups.Get(b) {
			seen[n.ID]++
		}
	}
	for _, n := range list {
		assert.Equal(t, 1, seen[n.ID], "notification %s", n.ID)
	}

	assert.Equal(t, []string{"e", "a"}, ids(groups.Today))
	assert.Equal(t, []string{"b"}, ids(groups.Yesterday))
	assert.Equal(t, []string{"c"}, ids(groups.ThisWeek))
	assert.Equal(t, []string{"d", "f"}, ids(groups.Older))
}

func TestFilterBy_Composition(t *testing.T) {
	list := []model.Notification{
		{ID: "1", Category: model.CategoryChat, Priority: model.PriorityHigh},
		{ID: "2", Category: model.CategoryChat, Priority: model.PriorityLow, IsRead: true},
		{ID: "3", Category: model.CategoryExercise, Priority: model.PriorityHigh, IsArchived: true},
		{ID: "4", Category: model.CategoryChat, Priority: model.PriorityHigh, IsRead: true},
	}
	filters := []model.Filter{
		{},
		{Category: model.Ptr(model.CategoryChat)},
		{Priority: model.Ptr(model.PriorityHigh)},
		{IsRead: model.Ptr(true)},
		{IsArchived: model.Ptr(false), Priority: model.Ptr(model.PriorityLow)},
		{Category: model.Ptr(model.CategoryExercise)},
	}

	for i, f1 := range filters {
		for j, f2 := range filters {
			nested := FilterBy(FilterBy(list, f1), f2)
			combined := FilterBy(list, f1, f2)
			swapped := FilterBy(list, f2, f1)
			assert.Equal(t, ids(combined), ids(nested), "f%d then f%d", i, j)
			assert.Equal(t, ids(combined), ids(swapped), "f%d and f%d", i, j)
		}
	}

	assert.Equal(t, []string{"1", "4"}, ids(FilterBy(list, filters[1], filters[2])))
	assert.Len(t, FilterBy(list), len(list))
}

func TestFilterBy_FoldsRawPredicates(t *testing.T) {
	n := model.Notification{ID: "p", Category: "PATIENT_PAIN_REPORT", Priority: "High"}
	Canonicalize(&n)

	got := FilterBy([]model.Notification{n}, model.Filter{
		Category: model.Ptr(model.Category("PATIENT_PAIN_REPORT")),
		Priority: model.Ptr(model.Priority("HIGH")),
	})
	assert.Len(t, got, 1)
}

func TestCanonicalCategories(t *testing.T) {
	got := CanonicalCategories(map[string]bool{
		"chat":                false,
		"Chat":                true,
		"PATIENT_PAIN_REPORT": true,
		"retired":             true,
	})
	assert.Equal(t, map[string]bool{
		string(model.CategoryChat):       true,
		string(model.CategoryPainReport): true,
	}, got)
	assert.NotNil(t, CanonicalCategories(nil))
}

func TestSortByDateDesc_Stable(t *testing.T) {
	same := now.Add(-time.Hour)
	list := []model.Notification{
		note("old", now.AddDate(0, 0, -2)),
		note("x", same),
		note("new", now),
		note("y", same),
	}
	sorted := SortByDateDesc(list)
	assert.Equal(t, []string{"new", "x", "y", "old"}, ids(sorted))
	assert.Equal(t, "old", list[0].ID, "input must not be reordered")
}

func ids(list []model.Notification) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, n.ID)
	}
	return out
}
