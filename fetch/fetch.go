// Package fetch implements the WHATWG fetch pipeline for a JS runtime
// host: it builds a request, enforces scheme/port policy, runs the
// redirect loop with RFC-compliant method downgrade and cross-origin
// header stripping, and surfaces a Response. The package is
// engine-agnostic; JS glue lives with the embedder.
package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/net/http2"
	"golang.org/x/sync/semaphore"

	"github.com/fluxedge/corejs/streams"
)

// RedirectMode selects how the redirect loop behaves on a 3xx response,
// mirroring JS fetch's RequestInit.redirect.
type RedirectMode string

const (
	RedirectFollow RedirectMode = "follow"
	RedirectManual RedirectMode = "manual"
	RedirectError  RedirectMode = "error"
)

// maxRedirects matches the 20-hop cap browsers apply.
const maxRedirects = 20

// connAdmission bounds concurrent in-flight requests process-wide. The
// permit is held until the response body has been handed back to the
// caller.
var connAdmission = semaphore.NewWeighted(500)

// defaultTransport is shared across Do calls; http2.ConfigureTransport
// upgrades it to negotiate HTTP/2 over TLS the way a browser's fetch
// would.
var defaultTransport = func() *http.Transport {
	t := &http.Transport{
		DisableCompression: true, // fetch does its own Accept-Encoding/decoding below.
	}
	_ = http2.ConfigureTransport(t)
	return t
}()

// Options carries everything a single fetch call needs, mirroring JS
// fetch's RequestInit.
type Options struct {
	Method   string
	URL      string
	Header   http.Header
	Body     []byte
	Signal   *streams.AbortSignal
	Redirect RedirectMode

	// Timeout is an embedder-level guard; zero means no timeout beyond
	// ctx.
	Timeout time.Duration
}

// Response is the realized counterpart to Options: a completed or
// redirect-terminal fetch result.
type Response struct {
	Status     int
	StatusText string
	Header     http.Header
	Body       []byte
	URL        string
	Redirected bool
}

// Do runs the fetch pipeline for opts: scheme dispatch, port policy,
// the redirect loop, and header policy.
func Do(ctx context.Context, opts Options) (*Response, error) {
	if opts.Method == "" {
		opts.Method = http.MethodGet
	}
	opts.Method = strings.ToUpper(opts.Method)
	if opts.Redirect == "" {
		opts.Redirect = RedirectFollow
	}
	if opts.Header == nil {
		opts.Header = make(http.Header)
	}

	scheme, _, ok := strings.Cut(opts.URL, ":")
	if !ok {
		return nil, typeErrorf("fetch: %q has no scheme", opts.URL)
	}
	switch strings.ToLower(scheme) {
	case "http", "https":
		return doNetwork(ctx, opts)
	case "data":
		return doDataURL(opts)
	case "about", "blob", "file":
		return nil, typeErrorf("fetch: scheme %q is not supported", scheme)
	default:
		return nil, typeErrorf("fetch: invalid scheme %q", scheme)
	}
}

func doDataURL(opts Options) (*Response, error) {
	mediaType, body, err := parseDataURL(opts.URL, opts.Method)
	if err != nil {
		return nil, err
	}
	h := make(http.Header)
	h.Set("content-type", mediaType)
	return &Response{
		Status:     200,
		StatusText: "OK",
		Header:     h,
		Body:       body,
		URL:        opts.URL,
	}, nil
}

func doNetwork(ctx context.Context, opts Options) (*Response, error) {
	initial, err := parseAbsoluteURL(opts.URL)
	if err != nil {
		return nil, err
	}
	if isBlockedPort(effectivePort(initial)) {
		return nil, typeErrorf("fetch: port %s is blocked", effectivePort(initial))
	}

	if opts.Signal != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		if opts.Signal.Aborted() {
			return nil, abortError(opts.Signal)
		}
		opts.Signal.OnAbort(func(any) { cancel() })
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	if err := connAdmission.Acquire(ctx, 1); err != nil {
		if opts.Signal != nil && opts.Signal.Aborted() {
			return nil, abortError(opts.Signal)
		}
		return nil, fmt.Errorf("fetch: waiting for a connection slot: %w", err)
	}
	// Held until the response body has been fully read back (or the
	// request failed); a caller still draining a body occupies a live
	// connection in the transport's pool.
	defer connAdmission.Release(1)

	method := opts.Method
	header := opts.Header.Clone()
	body := opts.Body
	currentURL := initial
	originURL := initial
	client := &http.Client{
		Transport: defaultTransport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse // the loop below drives redirects manually.
		},
	}

	redirectCount := 0
	for {
		applyDefaultHeaders(header)

		var reqBody io.Reader
		if len(body) > 0 {
			reqBody = bytes.NewReader(body)
		}
		httpReq, err := http.NewRequestWithContext(ctx, method, currentURL.Href, reqBody)
		if err != nil {
			return nil, fmt.Errorf("fetch: building request: %w", err)
		}
		httpReq.Header = header.Clone()

		resp, err := client.Do(httpReq)
		if err != nil {
			if opts.Signal != nil && opts.Signal.Aborted() {
				return nil, abortError(opts.Signal)
			}
			return nil, fmt.Errorf("fetch: %w", err)
		}

		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			location := resp.Header.Get("location")
			if location != "" {
				resp.Body.Close()

				if opts.Redirect == RedirectManual {
					return responseFromHTTP(resp, nil, currentURL.Href, redirectCount > 0)
				}
				if opts.Redirect == RedirectError {
					return nil, ErrRedirectModeError
				}

				redirectCount++
				if redirectCount >= maxRedirects {
					return nil, ErrTooManyRedirects
				}

				next, err := resolveReference(currentURL.Href, location)
				if err != nil {
					return nil, err
				}
				if next.Scheme == "http:" || next.Scheme == "https:" {
					if isBlockedPort(effectivePort(next)) {
						return nil, typeErrorf("fetch: redirect port %s is blocked", effectivePort(next))
					}
				}

				method, body, header = downgradeForRedirect(resp.StatusCode, method, body, header)
				if !sameOrigin(originURL, next) {
					header.Del("authorization")
				}
				currentURL = next
				continue
			}
		}

		return readResponseBody(resp, currentURL.Href, redirectCount > 0)
	}
}

// downgradeForRedirect applies the RFC 9110 method-downgrade rule: on
// 301/302 after POST, or 303 from anything but GET/HEAD, switch to a
// bodiless GET and strip representation headers that no longer describe
// anything.
func downgradeForRedirect(status int, method string, body []byte, header http.Header) (string, []byte, http.Header) {
	downgrade := false
	switch status {
	case 301, 302:
		downgrade = method == http.MethodPost
	case 303:
		downgrade = method != http.MethodGet && method != http.MethodHead
	}
	if !downgrade {
		return method, body, header
	}
	h := header.Clone()
	h.Del("content-encoding")
	h.Del("content-language")
	h.Del("content-location")
	h.Del("content-type")
	return http.MethodGet, nil, h
}

// applyDefaultHeaders fills in the default request headers, each only if
// absent: user-agent, accept-encoding, accept-language, and accept.
func applyDefaultHeaders(h http.Header) {
	if h.Get("user-agent") == "" {
		h.Set("user-agent", "corejs/1.0")
	}
	if h.Get("accept-encoding") == "" {
		h.Set("accept-encoding", "zstd, br, gzip, deflate")
	}
	if h.Get("accept-language") == "" {
		h.Set("accept-language", "*")
	}
	if h.Get("accept") == "" {
		h.Set("accept", "*/*")
	}
}

func readResponseBody(resp *http.Response, finalURL string, redirected bool) (*Response, error) {
	defer resp.Body.Close()
	body, err := decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("fetch: reading response body: %w", err)
	}
	return responseFromHTTP(resp, body, finalURL, redirected)
}

func responseFromHTTP(resp *http.Response, body []byte, finalURL string, redirected bool) (*Response, error) {
	return &Response{
		Status:     resp.StatusCode,
		StatusText: resp.Status,
		Header:     resp.Header.Clone(),
		Body:       body,
		URL:        finalURL,
		Redirected: redirected,
	}, nil
}

// decodeBody undoes whatever Content-Encoding the server used, since
// defaultTransport disables Go's built-in gzip auto-decompression to
// keep control of the brotli/deflate cases too.
func decodeBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	switch strings.ToLower(resp.Header.Get("content-encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	case "br":
		r = brotli.NewReader(r)
	case "zstd":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		r = zr
	case "deflate":
		fr := flate.NewReader(r)
		defer fr.Close()
		r = fr
	}
	return io.ReadAll(r)
}

func abortError(signal *streams.AbortSignal) error {
	if reason := signal.Reason(); reason != nil {
		if err, ok := reason.(error); ok {
			return err
		}
		return fmt.Errorf("fetch: aborted: %v", reason)
	}
	return ErrAborted
}
