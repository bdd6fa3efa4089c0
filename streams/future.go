package streams

import "sync"

// Future is a minimal write-once promise: the WHATWG algorithms describe
// the engine's suspension points as promise settlement, but this package
// has no JS engine underneath it to supply real promises. Future gives the
// pure-Go algorithms (pipeTo, tee, reader.Closed) the same "resolve once,
// fire every waiter" shape without pulling in a JS runtime.
//
// A Future is safe for concurrent Resolve/Reject/OnSettle calls: unlike
// a single JS event-loop thread, an embedder may
// legitimately call controller methods from a goroutine reading a network
// response, so this package takes its own lock rather than relying on
// single-threadedness.
type Future struct {
	mu        sync.Mutex
	done      bool
	rejected  bool
	value     any
	err       error
	onResolve []func(any)
	onReject  []func(error)
}

// NewFuture returns an unsettled Future.
func NewFuture() *Future { return &Future{} }

// Resolve settles the future successfully. A second call is a no-op, per
// promise semantics (settle-once).
func (f *Future) Resolve(v any) {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return
	}
	f.done = true
	f.value = v
	cbs := f.onResolve
	f.onResolve, f.onReject = nil, nil
	f.mu.Unlock()
	for _, cb := range cbs {
		cb(v)
	}
}

// Reject settles the future with an error. A second call is a no-op.
func (f *Future) Reject(err error) {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return
	}
	f.done = true
	f.rejected = true
	f.err = err
	cbs := f.onReject
	f.onResolve, f.onReject = nil, nil
	f.mu.Unlock()
	for _, cb := range cbs {
		cb(err)
	}
}

// OnSettle registers callbacks that fire exactly once, immediately if the
// future has already settled. Either onResolve or onReject fires, never
// both, matching ReadRequest's single-shot callback contract.
func (f *Future) OnSettle(onResolve func(any), onReject func(error)) {
	f.mu.Lock()
	if f.done {
		done, rejected, value, err := f.done, f.rejected, f.value, f.err
		f.mu.Unlock()
		if done {
			if rejected {
				if onReject != nil {
					onReject(err)
				}
			} else if onResolve != nil {
				onResolve(value)
			}
		}
		return
	}
	if onResolve != nil {
		f.onResolve = append(f.onResolve, onResolve)
	}
	if onReject != nil {
		f.onReject = append(f.onReject, onReject)
	}
	f.mu.Unlock()
}

// Settled reports whether the future has resolved or rejected.
func (f *Future) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}
