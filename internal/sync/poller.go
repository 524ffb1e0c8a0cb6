// Package sync polls the server unread aggregate in the background and feeds
// the results to the Bubble Tea runtime.
package sync

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/notification-center/internal/api"
	"github.com/nhle/notification-center/internal/notify"
)

// SyncState represents the current state of the poller.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncRunning:
		return "syncing"
	case SyncError:
		return "error"
	default:
		return "idle"
	}
}

// SyncStatus holds the state of the last poll.
type SyncStatus struct {
	State    SyncState
	LastSync time.Time
	Unread   int
	Error    error
}

// SyncResultMsg is a tea.Msg sent when a poll completes.
type SyncResultMsg struct {
	Unread    int
	Error     error
	AuthError *AuthErrorMsg
}

// AuthErrorMsg is a tea.Msg sent when the server rejects the session token.
type AuthErrorMsg struct {
	Message string
}

// Refresher fetches the server unread aggregate. *notify.Store satisfies it.
type Refresher interface {
	RefreshUnreadCount(ctx context.Context) (int, error)
}

// fetchTimeout is the maximum time allowed for a single poll.
const fetchTimeout = 15 * time.Second

// defaultInterval applies when the configured interval is not positive.
const defaultInterval = 60 * time.Second

// Poller periodically refreshes the unread aggregate.
type Poller struct {
	refresher Refresher
	interval  time.Duration
	logger    *zap.Logger

	status    SyncStatus
	resultCh  chan SyncResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a poller for r. logger may be nil.
func New(r Refresher, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		refresher: r,
		interval:  interval,
		logger:    logger,
		resultCh:  make(chan SyncResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start returns a tea.Cmd that starts the polling goroutine and waits for
// the first result.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()

	return p.waitForResult()
}

// Stop halts the polling goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Refresh triggers an immediate poll.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A poll is already queued.
	}
}

// Status returns the state of the last poll.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.poll()
		case <-p.triggerCh:
			p.poll()
		}
	}
}

// poll performs a single refresh and sends a SyncResultMsg.
func (p *Poller) poll() {
	p.setStatus(SyncRunning, 0, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	n, err := p.refresher.RefreshUnreadCount(ctx)
	if errors.Is(err, notify.ErrClosed) {
		return
	}
	if err != nil {
		p.setStatus(SyncError, 0, err)
		p.logger.Debug("unread poll failed", zap.Error(err))

		if api.IsAuthError(err) {
			p.sendResult(SyncResultMsg{
				Error: err,
				AuthError: &AuthErrorMsg{
					Message: "Session expired. Sign in again to keep notifications up to date.",
				},
			})
			return
		}

		p.sendResult(SyncResultMsg{Error: err})
		return
	}

	p.setStatus(SyncIdle, n, nil)
	p.sendResult(SyncResultMsg{Unread: n})
}

func (p *Poller) setStatus(state SyncState, unread int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle && err == nil {
		p.status.LastSync = time.Now()
		p.status.Unread = unread
	}
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next poll result.
// Call it after handling a SyncResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
