package streams

// Tee implements ReadableStream.tee for default-controller streams:
// acquire a default reader over src, create two branches sharing a
// single pull algorithm that reads one chunk at a time and enqueues it
// to both unclaimed branches. cloneForBranch2, if non-nil, is applied to
// the chunk destined for branch 2 (the cloneForBranch2 hook, wired by
// the caller to structuredClone; this package stays decoupled from the
// clone package).
func Tee(src *Stream, cloneForBranch2 func(any) any) (branch1, branch2 *Stream, err error) {
	r, err := src.GetReader()
	if err != nil {
		return nil, nil, err
	}

	t := &defaultTeeState{reader: r, cancelPromise: NewFuture()}

	// Constructing a branch runs its first pull synchronously; hold the
	// shared pull off until both branches exist.
	t.reading = true
	branch1, err = NewReadableStream(DefaultSource{
		Pull:   t.pull,
		Cancel: t.cancel1,
	})
	if err != nil {
		return nil, nil, err
	}
	branch2, err = NewReadableStream(DefaultSource{
		Pull:   t.pull,
		Cancel: t.cancel2,
	})
	if err != nil {
		return nil, nil, err
	}
	t.branch1, t.branch2 = branch1, branch2
	t.cloneForBranch2 = cloneForBranch2
	t.reading = false

	r.Closed().OnSettle(nil, func(e error) {
		branch1.ctrl.(*DefaultController).errorController(e)
		branch2.ctrl.(*DefaultController).errorController(e)
		t.cancelPromise.Resolve(nil)
	})

	return branch1, branch2, nil
}

type defaultTeeState struct {
	reader          *DefaultReader
	branch1, branch2 *Stream
	cloneForBranch2 func(any) any
	cancelPromise   *Future

	reading   bool
	canceled1 bool
	canceled2 bool
	reason1   any
	reason2   any
}

// pull is shared by both branches' DefaultSource.Pull: one read from the
// source feeds every unclaimed branch.
func (t *defaultTeeState) pull(_ *DefaultController) error {
	if t.reading {
		return nil
	}
	t.reading = true
	t.reader.Read(ReadRequest{
		ChunkSteps: func(chunk any) {
			t.reading = false
			if !t.canceled1 {
				chunk1 := chunk
				c2 := t.branch1.ctrl.(*DefaultController)
				c2.Enqueue(chunk1)
			}
			if !t.canceled2 {
				chunk2 := chunk
				if t.cloneForBranch2 != nil {
					chunk2 = t.cloneForBranch2(chunk)
				}
				t.branch2.ctrl.(*DefaultController).Enqueue(chunk2)
			}
		},
		CloseSteps: func() {
			t.reading = false
			if !t.canceled1 {
				t.branch1.ctrl.(*DefaultController).Close()
			}
			if !t.canceled2 {
				t.branch2.ctrl.(*DefaultController).Close()
			}
			t.cancelPromise.Resolve(nil)
		},
		ErrorSteps: func(err error) {
			t.reading = false
		},
	})
	return nil
}

// cancel1/cancel2 record each branch's own cancel reason; when both have
// cancelled, the source is cancelled with a 2-element array holding both
// branches' reasons.
func (t *defaultTeeState) cancel1(reason any) error {
	t.canceled1 = true
	t.reason1 = reason
	if !t.canceled2 {
		return nil
	}
	return t.cancelSource()
}

func (t *defaultTeeState) cancel2(reason any) error {
	t.canceled2 = true
	t.reason2 = reason
	if !t.canceled1 {
		return nil
	}
	return t.cancelSource()
}

func (t *defaultTeeState) cancelSource() error {
	var settleErr error
	t.reader.Cancel([]any{t.reason1, t.reason2}).OnSettle(
		func(v any) { t.cancelPromise.Resolve(v) },
		func(e error) { settleErr = e; t.cancelPromise.Reject(e) },
	)
	return settleErr
}

// TeeByteStream implements ReadableStream.tee for byte streams, the
// hard case: the internal reader adapts between a default
// reader and a BYOB reader depending on whether the pulling branch has
// an outstanding BYOBRequest, reproducing the original's
// readAgainForBranch1/readAgainForBranch2 reentrancy flags.
func TeeByteStream(src *Stream) (branch1, branch2 *Stream, err error) {
	t := &byteTeeState{src: src, cancelPromise: NewFuture()}

	branch1, err = NewReadableByteStream(ByteSource{
		Pull:   func(c *ByteController) error { return t.pull(1, c) },
		Cancel: t.cancel1,
	})
	if err != nil {
		return nil, nil, err
	}
	branch2, err = NewReadableByteStream(ByteSource{
		Pull:   func(c *ByteController) error { return t.pull(2, c) },
		Cancel: t.cancel2,
	})
	if err != nil {
		return nil, nil, err
	}
	t.branch1, t.branch2 = branch1, branch2
	return branch1, branch2, nil
}

type byteTeeState struct {
	src              *Stream
	branch1, branch2 *Stream

	defReader  *DefaultReader
	byobReader *BYOBReader

	reading             bool
	readAgainForBranch1 bool
	readAgainForBranch2 bool

	canceled1, canceled2 bool
	reason1, reason2     any
	cancelPromise        *Future
}

func (t *byteTeeState) branchCtrl(n int) *ByteController {
	if n == 1 {
		return t.branch1.ctrl.(*ByteController)
	}
	return t.branch2.ctrl.(*ByteController)
}

func (t *byteTeeState) otherCanceled(n int) bool {
	if n == 1 {
		return t.canceled2
	}
	return t.canceled1
}

func (t *byteTeeState) setReadAgain(n int, v bool) {
	if n == 1 {
		t.readAgainForBranch1 = v
	} else {
		t.readAgainForBranch2 = v
	}
}

func (t *byteTeeState) pull(n int, c *ByteController) error {
	if t.reading {
		t.setReadAgain(n, true)
		return nil
	}
	t.reading = true

	if req := c.GetBYOBRequest(); req != nil {
		t.pullWithBYOBReader(n, req)
	} else {
		t.pullWithDefaultReader(n)
	}
	return nil
}

func (t *byteTeeState) ensureDefaultReader() *DefaultReader {
	if t.byobReader != nil {
		t.byobReader.ReleaseLock()
		t.byobReader = nil
	}
	if t.defReader == nil {
		t.defReader, _ = t.src.GetReader()
	}
	return t.defReader
}

func (t *byteTeeState) ensureBYOBReader() *BYOBReader {
	if t.defReader != nil {
		t.defReader.ReleaseLock()
		t.defReader = nil
	}
	if t.byobReader == nil {
		t.byobReader, _ = t.src.GetBYOBReader()
	}
	return t.byobReader
}

// pullWithDefaultReader reads one Uint8Array-shaped chunk from the
// source and clones it into both branches (neither branch currently
// holds a BYOB request against the source).
func (t *byteTeeState) pullWithDefaultReader(n int) {
	dr := t.ensureDefaultReader()
	dr.Read(ReadRequest{
		ChunkSteps: func(chunk any) {
			t.reading = false
			bytes, _ := chunk.([]byte)
			if !t.canceled1 {
				clone := append([]byte{}, bytes...)
				t.branch1.ctrl.(*ByteController).Enqueue(clone, 0, len(clone))
			}
			if !t.canceled2 {
				clone := append([]byte{}, bytes...)
				t.branch2.ctrl.(*ByteController).Enqueue(clone, 0, len(clone))
			}
			t.drainReadAgain()
		},
		CloseSteps: func() {
			t.reading = false
			t.closeBranches()
		},
		ErrorSteps: func(err error) {
			t.reading = false
		},
	})
}

// pullWithBYOBReader delegates a BYOB read to fill req's view: the
// pulling branch (the one whose BYOBRequest this is) gets its original
// buffer back via req.Respond; the other branch receives a fresh byte
// clone.
func (t *byteTeeState) pullWithBYOBReader(n int, req *BYOBRequest) {
	br := t.ensureBYOBReader()
	view := req.View()
	br.Read(BYOBView{
		Buffer: view, BufferByteLength: len(view),
		ByteOffset: 0, ByteLength: len(view), ElementSize: 1, Ctor: "Uint8Array",
	}, 1, ReadIntoRequest{
		ChunkSteps: func(chunk []byte, _ string) {
			t.reading = false
			_ = req.Respond(len(chunk))
			if !t.otherCanceled(n) {
				clone := append([]byte{}, chunk...)
				t.branchCtrl(otherBranch(n)).Enqueue(clone, 0, len(clone))
			}
			t.drainReadAgain()
		},
		CloseSteps: func(chunk []byte, _ string) {
			t.reading = false
			if len(chunk) > 0 {
				_ = req.Respond(len(chunk))
			}
			t.closeBranches()
		},
		ErrorSteps: func(err error) {
			t.reading = false
		},
	})
}

func otherBranch(n int) int {
	if n == 1 {
		return 2
	}
	return 1
}

func (t *byteTeeState) drainReadAgain() {
	if t.readAgainForBranch1 {
		t.readAgainForBranch1 = false
		t.pull(1, t.branchCtrl(1))
	}
	if t.readAgainForBranch2 {
		t.readAgainForBranch2 = false
		t.pull(2, t.branchCtrl(2))
	}
}

// closeBranches closes both non-cancelled branches. Close() on a byte
// controller with an empty queue transitions the stream straight to
// Closed, which in turn notifies any BYOB reader parked on a pending
// pull-into via its close steps (the respond(0)-on-close behavior,
// realized here through the same stream-closed
// notification path Respond(0) would have driven).
func (t *byteTeeState) closeBranches() {
	if !t.canceled1 {
		t.branch1.ctrl.(*ByteController).Close()
	}
	if !t.canceled2 {
		t.branch2.ctrl.(*ByteController).Close()
	}
	t.cancelPromise.Resolve(nil)
}

func (t *byteTeeState) cancel1(reason any) error {
	t.canceled1 = true
	t.reason1 = reason
	if !t.canceled2 {
		return nil
	}
	return t.cancelSource()
}

func (t *byteTeeState) cancel2(reason any) error {
	t.canceled2 = true
	t.reason2 = reason
	if !t.canceled1 {
		return nil
	}
	return t.cancelSource()
}

func (t *byteTeeState) cancelSource() error {
	var settleErr error
	cancel := t.src.Cancel([]any{t.reason1, t.reason2})
	cancel.OnSettle(
		func(v any) { t.cancelPromise.Resolve(v) },
		func(e error) { settleErr = e; t.cancelPromise.Reject(e) },
	)
	return settleErr
}
