package streams

import (
	"errors"
	"testing"
)

type fakeWriter struct {
	ready, closed *Future
	written       []any
	closedCalled  bool
	abortedWith   any
	writeErr      error
}

func newFakeWriter() *fakeWriter {
	w := &fakeWriter{ready: NewFuture(), closed: NewFuture()}
	w.ready.Resolve(nil)
	return w
}

func (w *fakeWriter) Ready() *Future { return w.ready }
func (w *fakeWriter) Write(chunk any) *Future {
	f := NewFuture()
	if w.writeErr != nil {
		f.Reject(w.writeErr)
		return f
	}
	w.written = append(w.written, chunk)
	f.Resolve(nil)
	return f
}
func (w *fakeWriter) Close() *Future {
	w.closedCalled = true
	f := NewFuture()
	f.Resolve(nil)
	return f
}
func (w *fakeWriter) Abort(reason any) *Future {
	w.abortedWith = reason
	f := NewFuture()
	f.Resolve(nil)
	return f
}
func (w *fakeWriter) Closed() *Future { return w.closed }

func TestPipeToForwardsAllChunksAndCloses(t *testing.T) {
	src := newCountingStream(t, 3)
	w := newFakeWriter()

	settled := false
	var settleErr error
	PipeTo(src, w, PipeOptions{}).OnSettle(
		func(any) { settled = true },
		func(err error) { settled = true; settleErr = err },
	)

	if !settled || settleErr != nil {
		t.Fatalf("pipe did not settle cleanly: err=%v", settleErr)
	}
	if len(w.written) != 3 || w.written[0] != 1 || w.written[2] != 3 {
		t.Fatalf("written = %v, want [1 2 3]", w.written)
	}
	if !w.closedCalled {
		t.Fatalf("destination was not closed")
	}
}

func TestPipeToPreventCloseSkipsClose(t *testing.T) {
	src := newCountingStream(t, 1)
	w := newFakeWriter()
	PipeTo(src, w, PipeOptions{PreventClose: true}).OnSettle(func(any) {}, func(error) {})
	if w.closedCalled {
		t.Fatalf("destination was closed despite PreventClose")
	}
}

func TestPipeToSourceErrorAbortsDest(t *testing.T) {
	boom := errors.New("boom")
	src, err := NewReadableStream(DefaultSource{
		Pull: func(c *DefaultController) error { return boom },
	})
	if err != nil {
		t.Fatalf("NewReadableStream: %v", err)
	}
	w := newFakeWriter()

	var settleErr error
	PipeTo(src, w, PipeOptions{}).OnSettle(func(any) {}, func(e error) { settleErr = e })
	if !errors.Is(settleErr, boom) {
		t.Fatalf("settleErr = %v, want %v", settleErr, boom)
	}
	if !errors.Is(w.abortedWith.(error), boom) {
		t.Fatalf("dest.Abort called with %v, want %v", w.abortedWith, boom)
	}
}

func TestPipeToAbortSignalAbortsBothSides(t *testing.T) {
	src := newCountingStream(t, 100)
	w := newFakeWriter()
	w.ready = NewFuture() // never resolves on its own: pipe is parked waiting for backpressure

	sig := NewAbortSignal()
	var settleErr error
	PipeTo(src, w, PipeOptions{Signal: sig}).OnSettle(func(any) {}, func(e error) { settleErr = e })

	reason := errors.New("aborted by caller")
	sig.Abort(reason)

	if !errors.Is(settleErr, reason) {
		t.Fatalf("settleErr = %v, want %v", settleErr, reason)
	}
	if w.abortedWith != reason {
		t.Fatalf("dest.Abort reason = %v, want %v", w.abortedWith, reason)
	}
}
