package streams

import "fmt"

// Writer is the destination side of PipeTo. A full WritableStream is
// out of scope here, so PipeTo accepts this narrow
// interface (ready/write/close/abort plus a closed signal for the
// destination erroring independently of the pipe) rather than a
// concrete Writable type.
type Writer interface {
	// Ready resolves when the writer can accept another chunk
	// (backpressure), rejects if the writer has errored.
	Ready() *Future
	Write(chunk any) *Future
	Close() *Future
	Abort(reason any) *Future
	// Closed rejects if the writable side errors independently of
	// anything piping into it (e.g. the underlying sink failed).
	Closed() *Future
}

// PipeOptions mirrors ReadableStream.pipeTo's options.
type PipeOptions struct {
	PreventClose  bool
	PreventAbort  bool
	PreventCancel bool
	Signal        *AbortSignal
}

// PipeTo forwards chunks from src to
// dest respecting dest's backpressure, propagating
// cancellation/erroring/closing between the two sides subject to
// PreventClose/PreventAbort/PreventCancel, and aborting both sides if
// Signal fires. The returned Future settles when both sides have
// settled.
func PipeTo(src *Stream, dest Writer, opts PipeOptions) *Future {
	result := NewFuture()
	r, err := src.GetReader()
	if err != nil {
		result.Reject(err)
		return result
	}

	p := &pipeState{reader: r, dest: dest, opts: opts, result: result}

	if opts.Signal != nil {
		opts.Signal.OnAbort(func(reason any) {
			var actions []func() *Future
			if !opts.PreventAbort {
				actions = append(actions, func() *Future { return dest.Abort(reason) })
			}
			if !opts.PreventCancel {
				actions = append(actions, func() *Future { return r.Cancel(reason) })
			}
			p.shutdown(toError(reason), actions...)
		})
	}

	dest.Closed().OnSettle(nil, func(err error) {
		var actions []func() *Future
		if !opts.PreventCancel {
			actions = append(actions, func() *Future { return r.Cancel(err) })
		}
		p.shutdown(err, actions...)
	})

	r.Closed().OnSettle(nil, func(err error) {
		var actions []func() *Future
		if !opts.PreventAbort {
			actions = append(actions, func() *Future { return dest.Abort(err) })
		}
		p.shutdown(err, actions...)
	})

	p.pump()
	return result
}

// TransformPair is the {writable, readable} bundle PipeThrough pipes
// across: chunks written to Writable come out of Readable.
type TransformPair struct {
	Writable Writer
	Readable *Stream
}

// PipeThrough pipes src through transform and returns transform's
// readable side. The PipeTo result is observable via transform's
// readable end erroring or closing, matching
// ReadableStream.pipeThrough, whose returned stream is the only handle
// callers get on the pipe.
func PipeThrough(src *Stream, transform TransformPair, opts PipeOptions) *Stream {
	PipeTo(src, transform.Writable, opts)
	return transform.Readable
}

type pipeState struct {
	reader *DefaultReader
	dest   Writer
	opts   PipeOptions
	result *Future
	done   bool
}

// pump waits for backpressure to clear, reads one chunk, writes it, and
// recurses: the same "await ready, read, write" cycle the WHATWG
// algorithm describes, expressed as a chain of OnSettle callbacks since
// this package has no async/await.
func (p *pipeState) pump() {
	if p.done {
		return
	}
	p.dest.Ready().OnSettle(func(any) {
		if p.done {
			return
		}
		p.reader.Read(ReadRequest{
			ChunkSteps: func(chunk any) {
				p.dest.Write(chunk).OnSettle(
					func(any) { p.pump() },
					func(err error) {
						var actions []func() *Future
						if !p.opts.PreventCancel {
							actions = append(actions, func() *Future { return p.reader.Cancel(err) })
						}
						p.shutdown(err, actions...)
					},
				)
			},
			CloseSteps: func() {
				var actions []func() *Future
				if !p.opts.PreventClose {
					actions = append(actions, func() *Future { return p.dest.Close() })
				}
				p.shutdown(nil, actions...)
			},
			ErrorSteps: func(err error) {
				var actions []func() *Future
				if !p.opts.PreventAbort {
					actions = append(actions, func() *Future { return p.dest.Abort(err) })
				}
				p.shutdown(err, actions...)
			},
		})
	}, func(err error) {
		var actions []func() *Future
		if !p.opts.PreventCancel {
			actions = append(actions, func() *Future { return p.reader.Cancel(err) })
		}
		p.shutdown(err, actions...)
	})
}

// shutdown runs the given side-effect actions (ignoring their individual
// outcomes, per the WHATWG algorithm's "shutdown with an action" which
// only cares that the action settled) and then settles the pipe's result
// exactly once.
func (p *pipeState) shutdown(err error, actions ...func() *Future) {
	if p.done {
		return
	}
	p.done = true
	p.runActions(actions, func() {
		p.reader.ReleaseLock()
		if err != nil {
			p.result.Reject(err)
		} else {
			p.result.Resolve(nil)
		}
	})
}

func (p *pipeState) runActions(actions []func() *Future, done func()) {
	if len(actions) == 0 {
		done()
		return
	}
	actions[0]().OnSettle(
		func(any) { p.runActions(actions[1:], done) },
		func(error) { p.runActions(actions[1:], done) },
	)
}

func toError(reason any) error {
	if err, ok := reason.(error); ok {
		return err
	}
	return fmt.Errorf("streams: aborted: %v", reason)
}
