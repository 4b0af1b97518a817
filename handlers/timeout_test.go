package handlers

import (
	"bulletin/board"
	"bulletin/storage/resilient"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock fires timers only when told to.
type manualClock struct {
	fire    chan time.Time
	stopped atomic.Bool
}

func newManualClock() *manualClock {
	return &manualClock{fire: make(chan time.Time, 1)}
}

func (c *manualClock) Now() time.Time { return time.Now() }

func (c *manualClock) NewTimer(time.Duration) (<-chan time.Time, func() bool) {
	return c.fire, func() bool {
		c.stopped.Store(true)
		return true
	}
}

// countingRecorder counts how many responses were started on the wire.
type countingRecorder struct {
	*httptest.ResponseRecorder
	mu      sync.Mutex
	headers int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{ResponseRecorder: httptest.NewRecorder()}
}

func (c *countingRecorder) WriteHeader(code int) {
	c.mu.Lock()
	c.headers++
	c.mu.Unlock()
	c.ResponseRecorder.WriteHeader(code)
}

func (c *countingRecorder) responses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.headers
}

// neverRemote is a backend whose calls block until release is closed and
// ignore their context.
type neverRemote struct {
	release chan struct{}
}

func (n *neverRemote) Get(context.Context, string) ([]byte, bool, error) {
	<-n.release
	return nil, false, errors.New("released")
}

func (n *neverRemote) Set(context.Context, string, []byte) error {
	<-n.release
	return errors.New("released")
}

func (n *neverRemote) Del(context.Context, string) error {
	<-n.release
	return errors.New("released")
}

func (n *neverRemote) Name() string                { return "never" }
func (n *neverRemote) Close(context.Context) error { return nil }

func TestTimeoutGuardWithHangingRemote(t *testing.T) {
	remote := &neverRemote{release: make(chan struct{})}
	defer close(remote.release)

	store := resilient.New(remote, nil, resilient.Options{RemoteTimeout: time.Hour})
	h := &HTTPHandler{Board: board.New(store, nil), Store: store}
	router := mux.NewRouter()
	h.Register(router)

	deadline := 50 * time.Millisecond
	guard := NewTimeoutGuard(router, TimeoutGuardOptions{Timeout: deadline})

	rec := newCountingRecorder()
	start := time.Now()
	guard.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil))
	elapsed := time.Since(start)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.JSONEq(t, `{"error":"gateway timeout"}`, rec.Body.String())
	assert.Equal(t, 1, rec.responses())
	assert.GreaterOrEqual(t, elapsed, deadline)
	assert.Less(t, elapsed, deadline+500*time.Millisecond)
}

func TestTimeoutGuardCompletesFirst(t *testing.T) {
	clock := newManualClock()
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Handler", "yes")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})
	guard := NewTimeoutGuard(handler, TimeoutGuardOptions{Timeout: time.Second, Clock: clock})

	rec := newCountingRecorder()
	guard.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
	assert.Equal(t, "yes", rec.Header().Get("X-Handler"))
	assert.True(t, clock.stopped.Load(), "deadline must be cancelled")

	// a late deadline has nobody listening and changes nothing
	clock.fire <- time.Now()
	assert.Equal(t, 1, rec.responses())
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestTimeoutGuardImplicitOK(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})
	guard := NewTimeoutGuard(handler, TimeoutGuardOptions{Clock: newManualClock()})

	rec := newCountingRecorder()
	guard.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, rec.responses())
}

func TestTimeoutGuardDeadlineFirst(t *testing.T) {
	clock := newManualClock()
	entered := make(chan struct{})
	release := make(chan struct{})
	lateWrite := make(chan error, 1)
	var ctxErr atomic.Value

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		if err := r.Context().Err(); err != nil {
			ctxErr.Store(err)
		}
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("too late"))
		lateWrite <- err
	})
	guard := NewTimeoutGuard(handler, TimeoutGuardOptions{Timeout: time.Second, Clock: clock})

	rec := newCountingRecorder()
	go func() {
		<-entered
		clock.fire <- time.Now()
	}()
	guard.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/posts", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	close(release)
	require.ErrorIs(t, <-lateWrite, http.ErrHandlerTimeout)
	assert.Equal(t, 1, rec.responses())
	assert.JSONEq(t, `{"error":"gateway timeout"}`, rec.Body.String())
	assert.Nil(t, ctxErr.Load(), "context stays live without CancelOnTimeout")
}

func TestTimeoutGuardCancelOnTimeout(t *testing.T) {
	clock := newManualClock()
	entered := make(chan struct{})
	cancelled := make(chan error, 1)

	handler := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		close(entered)
		<-r.Context().Done()
		cancelled <- r.Context().Err()
	})
	guard := NewTimeoutGuard(handler, TimeoutGuardOptions{Clock: clock, CancelOnTimeout: true})

	go func() {
		<-entered
		clock.fire <- time.Now()
	}()
	rec := newCountingRecorder()
	guard.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	select {
	case err := <-cancelled:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("handler context was not cancelled")
	}
}

func TestTimeoutGuardPropagatesPanic(t *testing.T) {
	handler := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	guard := NewTimeoutGuard(handler, TimeoutGuardOptions{Clock: newManualClock()})

	assert.PanicsWithValue(t, "boom", func() {
		guard.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
