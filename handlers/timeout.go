package handlers

import (
	"bulletin/observability"
	"bulletin/utils"
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const DefaultRequestTimeout = 10 * time.Second

var timeoutBody = []byte(`{"error":"gateway timeout"}` + "\n")

type TimeoutGuardOptions struct {
	Timeout time.Duration
	Clock   utils.Clock
	// CancelOnTimeout cancels the request context once the deadline fires.
	// When false the wrapped handler runs on a context that is detached from
	// the connection, so an in-flight backend call is left to its own timeout.
	CancelOnTimeout bool
}

// TimeoutGuard answers 504 when the wrapped handler has not finished within
// the deadline. The handler writes into a buffer; whichever of completion and
// deadline is observed first decides the single response sent on the wire.
type TimeoutGuard struct {
	handler http.Handler
	opts    TimeoutGuardOptions
}

func NewTimeoutGuard(handler http.Handler, opts TimeoutGuardOptions) *TimeoutGuard {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRequestTimeout
	}
	if opts.Clock == nil {
		opts.Clock = utils.RealClock{}
	}
	return &TimeoutGuard{handler: handler, opts: opts}
}

func (g *TimeoutGuard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var ctx context.Context
	var cancel context.CancelFunc
	if g.opts.CancelOnTimeout {
		ctx, cancel = context.WithCancel(r.Context())
	} else {
		ctx, cancel = context.WithCancel(context.WithoutCancel(r.Context()))
	}
	r = r.WithContext(ctx)

	tw := &timeoutWriter{header: make(http.Header)}
	done := make(chan struct{})
	panicChan := make(chan interface{}, 1)
	go func() {
		defer cancel()
		defer func() {
			if p := recover(); p != nil {
				panicChan <- p
			}
		}()
		g.handler.ServeHTTP(tw, r)
		close(done)
	}()

	deadline, stop := g.opts.Clock.NewTimer(g.opts.Timeout)
	select {
	case p := <-panicChan:
		stop()
		panic(p)
	case <-done:
		stop()
		tw.mu.Lock()
		defer tw.mu.Unlock()
		dst := w.Header()
		for k, vv := range tw.header {
			dst[k] = vv
		}
		if !tw.wroteHeader {
			tw.code = http.StatusOK
		}
		w.WriteHeader(tw.code)
		_, _ = w.Write(tw.buf.Bytes())
	case <-deadline:
		tw.mu.Lock()
		defer tw.mu.Unlock()
		tw.timedOut = true
		if g.opts.CancelOnTimeout {
			cancel()
		}
		observability.RequestTimeoutsTotal.Inc()
		slog.Warn("Request timed out", "method", r.Method, "path", r.URL.Path, "timeout", g.opts.Timeout)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusGatewayTimeout)
		_, _ = w.Write(timeoutBody)
	}
}

type timeoutWriter struct {
	header http.Header

	mu          sync.Mutex
	buf         bytes.Buffer
	code        int
	wroteHeader bool
	timedOut    bool
}

func (tw *timeoutWriter) Header() http.Header {
	return tw.header
}

func (tw *timeoutWriter) Write(p []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if !tw.wroteHeader {
		tw.writeHeaderLocked(http.StatusOK)
	}
	return tw.buf.Write(p)
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut || tw.wroteHeader {
		return
	}
	tw.writeHeaderLocked(code)
}

func (tw *timeoutWriter) writeHeaderLocked(code int) {
	tw.wroteHeader = true
	tw.code = code
}
