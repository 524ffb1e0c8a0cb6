package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notification-center/internal/api"
)

type countingRefresher struct {
	mu    gosync.Mutex
	calls int
	n     int
	err   error
}

func (c *countingRefresher) RefreshUnreadCount(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.n, c.err
}

func TestPoller_InitialPollDelivered(t *testing.T) {
	r := &countingRefresher{n: 7}
	p := New(r, time.Hour, nil)
	defer p.Stop()

	msg := p.Start()()
	res, ok := msg.(SyncResultMsg)
	require.True(t, ok)
	assert.Equal(t, 7, res.Unread)
	assert.NoError(t, res.Error)
	assert.Equal(t, SyncIdle, p.Status().State)
	assert.Equal(t, 7, p.Status().Unread)
}

func TestPoller_RefreshTriggersPoll(t *testing.T) {
	r := &countingRefresher{n: 1}
	p := New(r, time.Hour, nil)
	defer p.Stop()

	p.Start()()
	r.mu.Lock()
	r.n = 3
	r.mu.Unlock()
	p.Refresh()

	res := p.WaitForNextResult()().(SyncResultMsg)
	assert.Equal(t, 3, res.Unread)
}

func TestPoller_AuthError(t *testing.T) {
	r := &countingRefresher{err: &api.AuthError{ServerError: api.ServerError{Op: "unread count", StatusCode: 401}}}
	p := New(r, time.Hour, nil)
	defer p.Stop()

	res := p.Start()().(SyncResultMsg)
	require.NotNil(t, res.AuthError)
	assert.Error(t, res.Error)
	assert.Equal(t, SyncError, p.Status().State)
}

func TestPoller_PlainError(t *testing.T) {
	r := &countingRefresher{err: errors.New("down")}
	p := New(r, time.Hour, nil)
	defer p.Stop()

	res := p.Start()().(SyncResultMsg)
	assert.Nil(t, res.AuthError)
	assert.EqualError(t, res.Error, "down")
}

func TestPoller_StartTwiceIsNoop(t *testing.T) {
	p := New(&countingRefresher{}, time.Hour, nil)
	defer p.Stop()

	require.NotNil(t, p.Start())
	assert.Nil(t, p.Start())
}
