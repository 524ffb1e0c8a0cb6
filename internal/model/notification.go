package model

import "time"

// Category is the canonical subject tag of a notification. Raw server values
// are folded into these by classify.NormalizeCategory; categories outside the
// well-known set pass through lower-cased.
type Category string

const (
	CategoryPrescription        Category = "prescription"
	CategoryNewPrescription     Category = "new_prescription"
	CategoryPrescriptionUpdated Category = "prescription_updated"
	CategoryRequest             Category = "request"
	CategoryExercise            Category = "exercise"
	CategorySystem              Category = "system"
	CategoryChat                Category = "chat"
	CategoryMessage             Category = "message"
	CategoryAppointment         Category = "appointment"
	CategoryPainReport          Category = "patient_pain_report"
	CategoryNewPatientRequest   Category = "new_patient_request"
)

// KnownCategories lists the canonical categories in display order.
var KnownCategories = []Category{
	CategoryPrescription,
	CategoryNewPrescription,
	CategoryPrescriptionUpdated,
	CategoryRequest,
	CategoryExercise,
	CategorySystem,
	CategoryChat,
	CategoryMessage,
	CategoryAppointment,
	CategoryPainReport,
	CategoryNewPatientRequest,
}

// Priority is the severity tag driving visual emphasis.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists the recognized priorities from least to most severe.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Well-known metadata keys.
const (
	MetaActionRequired = "action_required"
	MetaActionURL      = "action_url"
	MetaPrescriptionID = "prescription_id"
	MetaRelatedID      = "related_id"
	MetaFileID         = "file_id"
	MetaExpiresAt      = "expires_at"
)

// Notification is a server-issued record cached by the client. Only IsRead
// and IsArchived change after receipt.
type Notification struct {
	// ID is the opaque server identifier, unique within the cache.
	ID string `json:"id"`

	Category Category `json:"category"`
	Priority Priority `json:"priority"`

	Title   string `json:"title"`
	Message string `json:"message"`

	// CreatedAt orders lists (newest first) and drives date bucketing.
	CreatedAt time.Time `json:"created_at"`

	IsRead     bool `json:"is_read"`
	IsArchived bool `json:"is_archived"`

	// Metadata is an open map; see the Meta* keys for the ones the client
	// interprets.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Active reports whether the notification belongs in default views.
func (n Notification) Active() bool {
	return !n.IsArchived
}

// Unread reports whether the notification counts toward the unread badge.
func (n Notification) Unread() bool {
	return !n.IsRead && !n.IsArchived
}

// ExpiresAt returns the optional expiry carried in metadata.
func (n Notification) ExpiresAt() (time.Time, bool) {
	raw, ok := n.Metadata[MetaExpiresAt].(string)
	if !ok || raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
