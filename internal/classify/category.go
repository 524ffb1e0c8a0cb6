// Package classify maps notifications onto display and routing attributes and
// provides the grouping, filtering and sorting helpers used by list views.
//
// Raw category and priority strings from the server are folded to canonical
// values here, once, so downstream code only compares model constants.
package classify

import (
	"strings"

	"github.com/nhle/notification-center/internal/model"
)

// categoryAliases folds legacy and alternate spellings onto canonical values.
// Keys are already lower-cased with separators normalized to underscores.
var categoryAliases = map[string]model.Category{
	"prescriptions":            model.CategoryPrescription,
	"prescription_update":      model.CategoryPrescriptionUpdated,
	"requests":                 model.CategoryRequest,
	"exercises":                model.CategoryExercise,
	"messages":                 model.CategoryMessage,
	"chat_message":             model.CategoryChat,
	"appointments":             model.CategoryAppointment,
	"pain_report":              model.CategoryPainReport,
	"patient_pain":             model.CategoryPainReport,
	"new_patient":              model.CategoryNewPatientRequest,
	"patient_request":          model.CategoryNewPatientRequest,
	"new_patient_request_sent": model.CategoryNewPatientRequest,
}

// NormalizeCategory folds case and separator variants so that, for example,
// "PATIENT_PAIN_REPORT", "patient_pain_report" and "Patient-Pain-Report" all
// map to model.CategoryPainReport. Unknown values pass through lower-cased.
func NormalizeCategory(raw string) model.Category {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "_", " ", "_", ".", "_").Replace(s)
	if alias, ok := categoryAliases[s]; ok {
		return alias
	}
	return model.Category(s)
}

// NormalizePriority lower-cases a raw priority. Unrecognized values are kept
// so callers can still display them; styling falls back to medium.
func NormalizePriority(raw string) model.Priority {
	return model.Priority(strings.ToLower(strings.TrimSpace(raw)))
}

// Canonicalize rewrites n's category and priority in place.
func Canonicalize(n *model.Notification) {
	n.Category = NormalizeCategory(string(n.Category))
	n.Priority = NormalizePriority(string(n.Priority))
}

// CanonicalCategories folds the keys of a category opt-in map and drops the
// ones that are not known categories. When two spellings fold together an
// opt-in wins.
func CanonicalCategories(raw map[string]bool) map[string]bool {
	out := make(map[string]bool, len(raw))
	for k, v := range raw {
		c := NormalizeCategory(k)
		if !IsKnownCategory(c) {
			continue
		}
		out[string(c)] = out[string(c)] || v
	}
	return out
}

// IsKnownCategory reports whether c is one of the canonical categories.
func IsKnownCategory(c model.Category) bool {
	for _, k := range model.KnownCategories {
		if k == c {
			return true
		}
	}
	return false
}

// IsPrescription reports whether c is any of the prescription variants.
func IsPrescription(c model.Category) bool {
	switch c {
	case model.CategoryPrescription,
		model.CategoryNewPrescription,
		model.CategoryPrescriptionUpdated:
		return true
	}
	return false
}

// IsHighSalience reports whether c gets elevated styling regardless of
// priority: pain reports and new patient requests.
func IsHighSalience(c model.Category) bool {
	return c == model.CategoryPainReport || c == model.CategoryNewPatientRequest
}
