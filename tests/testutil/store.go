package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nhle/notification-center/internal/backend"
)

// NewTestStore creates an in-memory backend Store with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *backend.Store {
	t.Helper()

	s, err := backend.NewStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewTestServer serves s over HTTP, optionally through wrap (for fault
// injection). The server is shut down when the test completes.
func NewTestServer(
	t *testing.T,
	s *backend.Store,
	wrap func(http.Handler) http.Handler,
) *httptest.Server {
	t.Helper()

	var h http.Handler = backend.NewServer(s, "", nil).Handler()
	if wrap != nil {
		h = wrap(h)
	}

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}
