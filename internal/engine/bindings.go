package engine

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fluxedge/corejs/fetch"
	"github.com/fluxedge/corejs/resolver"
	"github.com/fluxedge/corejs/webcrypto"
)

// bindCrypto and bindFetch register the two subsystems that have an
// obvious JS-callable shape (a synchronous digest and a request/response
// round trip) using a JSON-string-argument convention. structuredClone
// and the stream engine operate on rich object graphs that only make
// sense once real JS values are bridged across the isolate value by
// value, which belongs to the host engine; callers needing them use the
// clone/streams packages directly from Go.
func bindCrypto(rt Runtime, provider webcrypto.Provider) error {
	if err := rt.RegisterFunc("__cryptoRandomUUID", func() string {
		return webcrypto.RandomUUID()
	}); err != nil {
		return fmt.Errorf("engine: registering __cryptoRandomUUID: %w", err)
	}

	return rt.RegisterFunc("__cryptoDigest", func(argsJSON string) (string, error) {
		var args struct {
			Alg     string `json:"alg"`
			DataB64 string `json:"dataB64"`
		}
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return "", fmt.Errorf("parsing arguments: %w", err)
		}
		data, err := base64.StdEncoding.DecodeString(args.DataB64)
		if err != nil {
			return "", fmt.Errorf("decoding data: %w", err)
		}
		hasher, err := provider.Digest(webcrypto.HashAlg(args.Alg))
		if err != nil {
			return "", err
		}
		hasher.Write(data)
		return base64.StdEncoding.EncodeToString(hasher.Sum(nil)), nil
	})
}

func bindFetch(rt Runtime, cfg Config) error {
	return rt.RegisterFunc("__fetchStart", func(argsJSON string) (string, error) {
		var args struct {
			URL          string            `json:"url"`
			Method       string            `json:"method"`
			Headers      map[string]string `json:"headers"`
			Body         string            `json:"body"`
			BodyIsBase64 bool              `json:"bodyIsBase64"`
			Redirect     string            `json:"redirect"`
		}
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return "", fmt.Errorf("parsing arguments: %w", err)
		}

		var body []byte
		if args.Body != "" {
			if args.BodyIsBase64 {
				decoded, err := base64.StdEncoding.DecodeString(args.Body)
				if err != nil {
					return "", fmt.Errorf("decoding binary body: %w", err)
				}
				body = decoded
			} else {
				body = []byte(args.Body)
			}
		}

		header := make(http.Header, len(args.Headers))
		for k, v := range args.Headers {
			header.Set(k, v)
		}

		ctx := context.Background()
		resp, err := fetch.Do(ctx, fetch.Options{
			Method:   args.Method,
			URL:      args.URL,
			Header:   header,
			Body:     body,
			Redirect: fetch.RedirectMode(args.Redirect),
			Timeout:  cfg.resolvedFetchTimeout(),
		})
		if err != nil {
			return "", err
		}

		respBody := resp.Body
		if int64(len(respBody)) > cfg.resolvedMaxResponseBytes() {
			respBody = respBody[:cfg.resolvedMaxResponseBytes()]
		}

		out := struct {
			Status     int               `json:"status"`
			StatusText string            `json:"statusText"`
			Headers    map[string]string `json:"headers"`
			BodyB64    string            `json:"bodyB64"`
			URL        string            `json:"url"`
			Redirected bool              `json:"redirected"`
		}{
			Status:     resp.Status,
			StatusText: resp.StatusText,
			Headers:    flattenHeader(resp.Header),
			BodyB64:    base64.StdEncoding.EncodeToString(respBody),
			URL:        resp.URL,
			Redirected: resp.Redirected,
		}
		encoded, err := json.Marshal(out)
		if err != nil {
			return "", fmt.Errorf("encoding response: %w", err)
		}
		return string(encoded), nil
	})
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}

// bindResolver registers a synchronous require.resolve(specifier, referrer)
// entry point backed by the resolver package, for hosts that let JS drive
// its own module graph instead of resolving ahead of time in Go.
func bindResolver(rt Runtime, res *resolver.Resolver) error {
	return rt.RegisterFunc("__resolveModule", func(specifier, referrer string) (string, error) {
		return res.Resolve(specifier, referrer, false, nil)
	})
}
