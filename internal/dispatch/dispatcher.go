// Package dispatch turns a clicked notification into a navigation.
//
// Resolution order, first match wins:
//
//  1. An explicit action_url matching a known backend shape (chat,
//     prescription with id, requests) maps to the role's screen.
//  2. Any other action_url is navigated to literally.
//  3. Without an action_url the canonical category decides.
//
// Unread notifications are marked read on click, without waiting for the
// server and without blocking navigation.
package dispatch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/notification-center/internal/classify"
	"github.com/nhle/notification-center/internal/model"
)

// NavState is passed along with a navigation so the target screen can
// open or highlight a specific record.
type NavState struct {
	OpenPrescriptionID string
	HighlightID        string
}

// Destination is a resolved navigation.
type Destination struct {
	Path  string
	State NavState
}

// Navigator performs navigation. The dispatcher never inspects the result.
type Navigator interface {
	Navigate(path string, state NavState)
}

// Marker marks a notification read. *notify.Store satisfies it.
type Marker interface {
	MarkAsRead(ctx context.Context, id string) error
}

// Resolve computes where n leads for role. It has no side effects.
func Resolve(n model.Notification, role model.Role) (Destination, bool) {
	if target, ok := classify.ActionTarget(n); ok {
		return resolveTarget(n, role, target)
	}
	return resolveCategory(n, role)
}

func resolveTarget(n model.Notification, role model.Role, target string) (Destination, bool) {
	switch {
	case chatURL.MatchString(target):
		return to(role, ScreenChat, NavState{})
	case prescriptionURL.MatchString(target):
		id, _ := prescriptionIDFromURL(target)
		return to(role, ScreenPrescriptions, NavState{OpenPrescriptionID: id})
	case requestsURL.MatchString(target):
		if role == model.RoleTherapist {
			return therapistRecord(n)
		}
		return to(role, ScreenRequests, NavState{})
	default:
		return Destination{Path: target}, true
	}
}

func resolveCategory(n model.Notification, role model.Role) (Destination, bool) {
	// Canonicalize is idempotent; lists from the store are already canonical.
	classify.Canonicalize(&n)

	switch n.Category {
	case model.CategoryChat, model.CategoryMessage:
		return to(role, ScreenChat, NavState{})
	case model.CategoryAppointment:
		return to(role, ScreenOverview, NavState{})
	case model.CategoryExercise:
		if role != model.RolePatient {
			return Destination{}, false
		}
		return to(role, ScreenExercises, NavState{})
	case model.CategoryRequest:
		if role != model.RoleTherapist {
			return Destination{}, false
		}
		return to(role, ScreenApprovals, NavState{HighlightID: highlightID(n)})
	case model.CategoryPrescription, model.CategoryNewPrescription, model.CategoryPrescriptionUpdated:
		return to(role, ScreenPrescriptions, NavState{
			OpenPrescriptionID: metaString(n, model.MetaPrescriptionID),
		})
	case model.CategoryPainReport, model.CategoryNewPatientRequest:
		if role == model.RoleTherapist {
			return therapistRecord(n)
		}
		return to(role, ScreenOverview, NavState{})
	default:
		return Destination{}, false
	}
}

// therapistRecord prefers the linked prescription and falls back to the
// approvals screen.
func therapistRecord(n model.Notification) (Destination, bool) {
	if rx := metaString(n, model.MetaPrescriptionID); rx != "" {
		return to(model.RoleTherapist, ScreenPrescriptions, NavState{OpenPrescriptionID: rx})
	}
	return to(model.RoleTherapist, ScreenApprovals, NavState{HighlightID: highlightID(n)})
}

func to(role model.Role, screen Screen, state NavState) (Destination, bool) {
	p, ok := Path(role, screen)
	if !ok {
		return Destination{}, false
	}
	return Destination{Path: p, State: state}, true
}

// markTimeout bounds the background mark-read call.
const markTimeout = 10 * time.Second

// Dispatcher resolves clicks for one user and drives the navigator.
type Dispatcher struct {
	nav    Navigator
	marker Marker
	role   model.Role
	logger *zap.Logger

	wg sync.WaitGroup
}

// New creates a dispatcher. logger may be nil.
func New(nav Navigator, marker Marker, role model.Role, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{nav: nav, marker: marker, role: role, logger: logger}
}

// Dispatch handles a click on n. It marks n read in the background when it
// is unread, then navigates if n resolves to a destination. The returned
// bool reports whether a navigation happened.
func (d *Dispatcher) Dispatch(n model.Notification) (Destination, bool) {
	if !n.IsRead && d.marker != nil {
		d.markRead(n.ID)
	}

	dest, ok := Resolve(n, d.role)
	if !ok {
		d.logger.Debug("notification has no destination",
			zap.String("id", n.ID),
			zap.String("category", string(n.Category)),
			zap.String("role", string(d.role)),
		)
		return Destination{}, false
	}
	d.nav.Navigate(dest.Path, dest.State)
	return dest, true
}

func (d *Dispatcher) markRead(id string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), markTimeout)
		defer cancel()
		if err := d.marker.MarkAsRead(ctx, id); err != nil {
			d.logger.Warn("mark read on click failed", zap.String("id", id), zap.Error(err))
		}
	}()
}

// Wait blocks until background mark-read calls have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
