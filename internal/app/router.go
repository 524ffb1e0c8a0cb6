package app

import (
	"sync"

	"go.uber.org/zap"

	"github.com/nhle/notification-center/internal/dispatch"
)

// maxHistory bounds the back stack.
const maxHistory = 50

// Router is the in-app navigator. The dispatcher calls Navigate; the root
// model reads Current to decide what to show.
type Router struct {
	mu      sync.Mutex
	history []dispatch.Destination
	logger  *zap.Logger
}

// NewRouter creates an empty router. logger may be nil.
func NewRouter(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{logger: logger}
}

// Navigate pushes a destination.
func (r *Router) Navigate(path string, state dispatch.NavState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, dispatch.Destination{Path: path, State: state})
	if len(r.history) > maxHistory {
		r.history = r.history[len(r.history)-maxHistory:]
	}
	r.logger.Debug("navigate",
		zap.String("path", path),
		zap.String("prescription", state.OpenPrescriptionID),
		zap.String("highlight", state.HighlightID),
	)
}

// Current returns the most recent destination.
func (r *Router) Current() (dispatch.Destination, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) == 0 {
		return dispatch.Destination{}, false
	}
	return r.history[len(r.history)-1], true
}

// Back pops the current destination and returns the one before it.
func (r *Router) Back() (dispatch.Destination, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) > 0 {
		r.history = r.history[:len(r.history)-1]
	}
	if len(r.history) == 0 {
		return dispatch.Destination{}, false
	}
	return r.history[len(r.history)-1], true
}

// Len returns the depth of the back stack.
func (r *Router) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.history)
}
