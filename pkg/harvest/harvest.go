// Package harvest captures the real request headers of the user's default
// browser by serving a one-shot page on localhost and opening it. The
// captured set is stripped of credential and per-request headers before it
// leaves this package. Harvesting interrupts the user with a browser tab,
// so it is an explicit, opt-in operation; the resolver never depends on it.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/userheaders/pkg/browser"
	"github.com/umputun/userheaders/pkg/headers"
)

// placeholder page served to the browser; tries to close its own tab
const placeholderPage = `<!DOCTYPE html>
<html>
<head>
<title>Close Me</title>
<style>body {margin: auto; max-width: 600px; text-align: center}</style>
</head>
<body>
<h1>You may now close this tab</h1>
<p>(A program needed to inspect your preferred browser's HTTP request
headers. This should have closed automatically but your browser ignored
the JavaScript <code>close()</code> call.)</p>
<script>window.close();</script>
</body>
</html>`

// Harvester runs the one-shot capture server.
type Harvester struct {
	timeout time.Duration
	openURL func(url string) error
}

// New creates a harvester. The timeout bounds how long to wait for the
// browser to show up; zero means the caller's context is the only bound.
func New(timeout time.Duration) *Harvester {
	return &Harvester{timeout: timeout, openURL: browser.OpenURL}
}

// Run serves the capture page on an ephemeral localhost port, opens it in
// the default browser and returns the first request's headers, normalized
// and stripped of never-replay values. Fails when no browser request
// arrives before the timeout or context cancellation.
func (h *Harvester) Run(ctx context.Context) (*headers.Profile, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen for browser probe: %w", err)
	}

	captured := make(chan http.Header, 1)

	router := routegroup.New(http.NewServeMux())
	router.Use(rest.AppInfo("userheaders", "umputun", "1"))
	router.Use(rest.Recoverer(lgr.Default()))
	router.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		select {
		case captured <- r.Header.Clone():
		default: // only the first request counts
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(placeholderPage))
	})

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("probe server: %w", err)
		}
		return nil
	})

	url := fmt.Sprintf("http://%s/", listener.Addr().String())
	log.Printf("[INFO] opening %s in the default browser", url)

	var raw http.Header
	openErr := h.openURL(url)
	if openErr == nil {
		select {
		case raw = <-captured:
		case <-gctx.Done():
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] probe server shutdown: %v", err)
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if openErr != nil {
		return nil, fmt.Errorf("open browser: %w", openErr)
	}
	if raw == nil {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("no browser request captured: %w", err)
		}
		return nil, fmt.Errorf("no browser request captured")
	}

	return fromHTTPHeader(raw), nil
}

// fromHTTPHeader converts wire headers into a profile. Go's header map has
// no order, so keys go in sorted; unsafe headers never make it through.
func fromHTTPHeader(raw http.Header) *headers.Profile {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := headers.New()
	for _, k := range keys {
		p.Set(k, strings.Join(raw.Values(k), ", "))
	}
	return headers.StripUnsafe(p)
}
