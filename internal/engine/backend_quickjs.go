//go:build !v8

package engine

import (
	"fmt"

	"modernc.org/quickjs"
)

func newBackend(cfg Config) (Runtime, error) {
	vm, err := quickjs.NewVM()
	if err != nil {
		return nil, fmt.Errorf("engine: creating quickjs VM: %w", err)
	}
	return &qjsRuntime{vm: vm}, nil
}

// qjsRuntime implements Runtime over modernc.org/quickjs, exposing just
// the Eval/RegisterFunc slice this package needs (binary-transfer
// machinery exists to move raw bytes across the JS boundary fast; this
// package's bindings only ever cross JSON strings, so none of that
// applies here).
type qjsRuntime struct {
	vm *quickjs.VM
}

func (r *qjsRuntime) Eval(js string) error {
	v, err := r.vm.EvalValue(js, quickjs.EvalGlobal)
	if err != nil {
		return err
	}
	v.Free()
	return nil
}

func (r *qjsRuntime) Close() {
	r.vm.Close()
}

// RegisterFunc registers fn under a temporary name and wraps it in JS so
// modernc.org/quickjs's (T, error)-as-array convention collapses back
// into a throw-or-return function.
func (r *qjsRuntime) RegisterFunc(name string, fn any) error {
	rawName := "__raw_" + name
	if err := r.vm.RegisterFunc(rawName, fn, false); err != nil {
		return err
	}
	wrapJS := fmt.Sprintf(`(function() {
		var raw = globalThis[%q];
		globalThis[%q] = function() {
			var r = raw.apply(this, arguments);
			if (Array.isArray(r)) {
				if (r[1] !== null && r[1] !== undefined) throw new TypeError("calling %s: " + r[1]);
				return r[0];
			}
			return r;
		};
		delete globalThis[%q];
	})()`, rawName, name, name, rawName)
	return r.Eval(wrapJS)
}
