package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/notification-center/internal/notify"
)

// storeEventMsg wraps a store change notification.
type storeEventMsg struct {
	event notify.Event
}

// eventsClosedMsg is sent once the store stops publishing.
type eventsClosedMsg struct{}

// waitForEvent returns a tea.Cmd that blocks until the store publishes.
// Call it again after handling each storeEventMsg to keep listening.
func waitForEvent(ch <-chan notify.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return storeEventMsg{event: ev}
	}
}
