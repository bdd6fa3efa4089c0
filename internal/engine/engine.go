package engine

import (
	"fmt"

	"github.com/fluxedge/corejs/resolver"
	"github.com/fluxedge/corejs/webcrypto"
)

// Engine is the facade a host embedder constructs: one JS runtime (chosen
// at compile time by the v8/quickjs build tag) with the core packages'
// synchronous entry points wired in as globals, plus the engine-agnostic
// packages available directly for callers that don't need a JS boundary
// at all. There is no site pooling and no multi-tenant surface; one
// Engine wraps one runtime.
type Engine struct {
	rt       Runtime
	Resolver *resolver.Resolver
	Crypto   webcrypto.Provider
}

// New constructs an Engine, selecting the embedded JS backend via the
// v8/!v8 build tag (backend_v8.go / backend_quickjs.go), and registers
// the crypto/fetch/resolver bindings described in bindings.go.
func New(cfg Config, fs resolver.FS, platform resolver.Platform) (*Engine, error) {
	rt, err := newBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("engine: constructing backend: %w", err)
	}

	res := resolver.New(fs, platform)
	provider := webcrypto.NewHybridDispatcher()

	e := &Engine{rt: rt, Resolver: res, Crypto: provider}

	if err := bindCrypto(rt, provider); err != nil {
		rt.Close()
		return nil, err
	}
	if err := bindFetch(rt, cfg); err != nil {
		rt.Close()
		return nil, err
	}
	if err := bindResolver(rt, res); err != nil {
		rt.Close()
		return nil, err
	}
	return e, nil
}

// Eval runs js as a top-level script on the embedded engine.
func (e *Engine) Eval(js string) error {
	return e.rt.Eval(js)
}

// Close releases the underlying isolate/VM.
func (e *Engine) Close() {
	e.rt.Close()
}
