package classify

import (
	"strings"

	"github.com/nhle/notification-center/internal/model"
)

// IconKey names the glyph shown next to a notification.
type IconKey string

const (
	IconPill     IconKey = "pill"
	IconInbox    IconKey = "inbox"
	IconActivity IconKey = "activity"
	IconInfo     IconKey = "info"
	IconMessage  IconKey = "message"
	IconCalendar IconKey = "calendar"
	IconAlert    IconKey = "alert"
	IconUserPlus IconKey = "user-plus"
	IconBell     IconKey = "bell"
)

// StyleToken is one of the four fixed priority style classes.
type StyleToken string

const (
	StyleLow    StyleToken = "priority-low"
	StyleMedium StyleToken = "priority-medium"
	StyleHigh   StyleToken = "priority-high"
	StyleUrgent StyleToken = "priority-urgent"
)

// IconFor maps a category to its icon key. Unknown categories get the bell.
func IconFor(c model.Category) IconKey {
	switch NormalizeCategory(string(c)) {
	case model.CategoryPrescription, model.CategoryNewPrescription, model.CategoryPrescriptionUpdated:
		return IconPill
	case model.CategoryRequest:
		return IconInbox
	case model.CategoryExercise:
		return IconActivity
	case model.CategorySystem:
		return IconInfo
	case model.CategoryChat, model.CategoryMessage:
		return IconMessage
	case model.CategoryAppointment:
		return IconCalendar
	case model.CategoryPainReport:
		return IconAlert
	case model.CategoryNewPatientRequest:
		return IconUserPlus
	default:
		return IconBell
	}
}

// PriorityStyleClass maps a priority to its style token, defaulting to medium.
func PriorityStyleClass(p model.Priority) StyleToken {
	switch NormalizePriority(string(p)) {
	case model.PriorityLow:
		return StyleLow
	case model.PriorityHigh:
		return StyleHigh
	case model.PriorityUrgent:
		return StyleUrgent
	default:
		return StyleMedium
	}
}

// IsElevated reports whether n should be rendered with elevated emphasis:
// high or urgent priority, or a high-salience category.
func IsElevated(n model.Notification) bool {
	switch PriorityStyleClass(n.Priority) {
	case StyleHigh, StyleUrgent:
		return true
	}
	return IsHighSalience(n.Category)
}

// RequiresAction is true iff metadata.action_required is the boolean true.
func RequiresAction(n model.Notification) bool {
	v, ok := n.Metadata[model.MetaActionRequired].(bool)
	return ok && v
}

// ActionTarget returns metadata.action_url verbatim, or "" when absent.
func ActionTarget(n model.Notification) (string, bool) {
	v, ok := n.Metadata[model.MetaActionURL].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}
