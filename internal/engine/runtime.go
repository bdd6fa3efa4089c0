package engine

// Runtime is the narrow engine surface this package needs: evaluate
// script text and register a Go function as a JS-callable global. Both
// backends (v8go, quickjs) implement it identically from the caller's
// point of view; RegisterFunc's Go-side signature convention is
// JSON-string args in, JSON-string/error out, so bindings.go reads the
// same either way.
type Runtime interface {
	// Eval runs js as a top-level script and discards its result.
	Eval(js string) error
	// RegisterFunc installs fn as globalThis[name]. fn returns nothing, a
	// single value, or a value followed by an error; the values are
	// JSON-able.
	RegisterFunc(name string, fn any) error
	// Close releases the isolate/VM and any pooled resources.
	Close()
}

// Backend constructs a Runtime for a given Config. Exactly one of
// backend_v8.go (build tag v8) and backend_quickjs.go (default) supplies
// newBackend, selecting the embedded engine at compile time via build
// tags.
type Backend func(cfg Config) (Runtime, error)

// Whichever backend file is compiled in must supply the Backend seam.
var _ Backend = newBackend
