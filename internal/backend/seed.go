package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/notification-center/internal/model"
)

// Seed inserts a representative mix of notifications relative to now, for
// demo sessions. Legacy upper-case categories are included on purpose.
func Seed(ctx context.Context, s *Store, now time.Time) error {
	samples := []model.Notification{
		{
			Category: model.CategoryPrescription, Priority: model.PriorityHigh,
			Title: "New prescription", Message: "Dr. Ortega assigned a knee mobility plan.",
			CreatedAt: now.Add(-12 * time.Minute),
			Metadata: map[string]any{
				model.MetaActionURL:      "/prescriptions/rx-42",
				model.MetaPrescriptionID: "rx-42",
				model.MetaActionRequired: true,
			},
		},
		{
			Category: "PATIENT_PAIN_REPORT", Priority: model.PriorityUrgent,
			Title: "Pain report", Message: "Patient reported pain level 8 after session.",
			CreatedAt: now.Add(-2 * time.Hour),
			Metadata:  map[string]any{model.MetaRelatedID: "report-7"},
		},
		{
			Category: model.CategoryChat, Priority: model.PriorityMedium,
			Title: "New message", Message: "Can we move tomorrow's session?",
			CreatedAt: now.Add(-26 * time.Hour),
			Metadata:  map[string]any{model.MetaActionURL: "/chat/conversations/c-19"},
		},
		{
			Category: model.CategoryRequest, Priority: model.PriorityMedium,
			Title: "File awaiting approval", Message: "An MRI report was uploaded.",
			CreatedAt: now.Add(-3 * 24 * time.Hour),
			Metadata: map[string]any{
				model.MetaActionURL: "/requests",
				model.MetaFileID:    "file-3",
			},
		},
		{
			Category: model.CategoryAppointment, Priority: model.PriorityLow,
			Title: "Appointment reminder", Message: "Session on Friday at 10:00.",
			CreatedAt: now.Add(-4 * 24 * time.Hour), IsRead: true,
		},
		{
			Category: model.CategoryExercise, Priority: model.PriorityLow,
			Title: "Exercise streak", Message: "Five days in a row, keep going.",
			CreatedAt: now.Add(-10 * 24 * time.Hour),
		},
		{
			Category: model.CategorySystem, Priority: model.PriorityLow,
			Title: "Maintenance window", Message: "Scheduled downtime on Sunday.",
			CreatedAt: now.Add(-40 * 24 * time.Hour), IsRead: true, IsArchived: true,
		},
	}

	for i, n := range samples {
		n.ID = fmt.Sprintf("n-%d", i+1)
		if _, err := s.Insert(ctx, n); err != nil {
			return fmt.Errorf("seeding notification %d: %w", i+1, err)
		}
	}

	return s.SavePreferences(ctx, model.Preferences{
		EmailEnabled: true,
		PushEnabled:  false,
		Categories: map[string]bool{
			string(model.CategoryPrescription): true,
			string(model.CategoryChat):         true,
			string(model.CategoryAppointment):  true,
			string(model.CategoryExercise):     false,
		},
	})
}
