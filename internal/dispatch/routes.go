package dispatch

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/nhle/notification-center/internal/model"
)

// Screen is a role-independent destination. Path maps it to the route of
// the acting role.
type Screen int

const (
	ScreenChat Screen = iota
	ScreenPrescriptions
	ScreenApprovals
	ScreenRequests
	ScreenOverview
	ScreenExercises
)

var routes = map[model.Role]map[Screen]string{
	model.RolePatient: {
		ScreenChat:          "/patient/chat",
		ScreenPrescriptions: "/patient/prescriptions",
		ScreenRequests:      "/patient/requests",
		ScreenOverview:      "/patient/overview",
		ScreenExercises:     "/patient/exercises",
	},
	model.RoleTherapist: {
		ScreenChat:          "/therapist/chat",
		ScreenPrescriptions: "/therapist/prescriptions",
		ScreenApprovals:     "/therapist/approvals",
		ScreenOverview:      "/therapist/overview",
	},
}

// Path returns the route of screen for role, or false when the role has no
// such screen.
func Path(role model.Role, screen Screen) (string, bool) {
	p, ok := routes[role][screen]
	return p, ok
}

// Known backend URL shapes. The chat conversation id is not captured; the
// chat screen picks the active conversation itself.
var (
	chatURL         = regexp.MustCompile(`(?i)(^|/)(chat|chats|conversations?|messages)(/|$|\?)`)
	prescriptionURL = regexp.MustCompile(`(?i)(^|/)prescriptions?/([^/?#]+)`)
	requestsURL     = regexp.MustCompile(`(?i)(^|/)requests(/|$|\?)`)
)

// prescriptionIDFromURL extracts the record id from a prescription URL.
func prescriptionIDFromURL(target string) (string, bool) {
	m := prescriptionURL.FindStringSubmatch(target)
	if m == nil {
		return "", false
	}
	return m[2], true
}

// metaString reads a correlation id from metadata. Ids arrive as strings or,
// from some producers, as JSON numbers.
func metaString(n model.Notification, key string) string {
	switch v := n.Metadata[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// highlightID picks the record an approvals screen should highlight.
func highlightID(n model.Notification) string {
	if id := metaString(n, model.MetaFileID); id != "" {
		return id
	}
	return metaString(n, model.MetaRelatedID)
}
