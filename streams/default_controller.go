package streams

// SizeAlgorithm computes a chunk's contribution to queueTotalSize. A nil
// SizeAlgorithm means every chunk counts as size 1, the WHATWG default
// for non-byte streams.
type SizeAlgorithm func(chunk any) (float64, error)

// DefaultSource is the underlying source an embedder supplies to
// NewReadableStream. Every
// callback is synchronous from this package's point of view: an embedder
// needing to suspend (e.g. waiting on network I/O) runs its own goroutine
// and calls back into the Controller it was handed once data is ready;
// this package has no event loop of its own to suspend on.
type DefaultSource struct {
	Start         func(c *DefaultController) error
	Pull          func(c *DefaultController) error
	Cancel        func(reason any) error
	Size          SizeAlgorithm
	HighWaterMark float64 // defaults to 1 if zero
}

type queueEntry struct {
	chunk any
	size  float64
}

// DefaultController is a ReadableStreamDefaultController. It owns an
// ordered queue of (chunk, size) and
// drives the pull algorithm's started/pulling/pullAgain latch.
type DefaultController struct {
	stream *Stream

	queue          []queueEntry
	queueTotalSize float64
	highWaterMark  float64
	sizeAlgorithm  SizeAlgorithm

	pullFn   func(c *DefaultController) error
	cancelFn func(reason any) error

	started        bool
	pulling        bool
	pullAgain      bool
	closeRequested bool
}

// NewReadableStream constructs a default (non-byte) ReadableStream and
// eagerly runs src.Start, mirroring the WHATWG constructor's synchronous
// start-algorithm invocation.
func NewReadableStream(src DefaultSource) (*Stream, error) {
	hwm := src.HighWaterMark
	if hwm == 0 {
		hwm = 1
	}
	s := &Stream{state: Readable}
	c := &DefaultController{
		stream:        s,
		highWaterMark: hwm,
		sizeAlgorithm: src.Size,
		pullFn:        src.Pull,
		cancelFn:      src.Cancel,
	}
	s.ctrl = c

	if src.Start != nil {
		if err := src.Start(c); err != nil {
			c.errorController(err)
			return s, err
		}
	}
	c.started = true
	c.pullIfNeeded()
	return s, nil
}

// Stream returns the controller's owning stream.
func (c *DefaultController) Stream() *Stream { return c.stream }

// DesiredSize reports highWaterMark - queueTotalSize, or nil if the
// stream is not Readable.
func (c *DefaultController) DesiredSize() *float64 {
	if c.stream.state != Readable {
		return nil
	}
	d := c.highWaterMark - c.queueTotalSize
	return &d
}

func (c *DefaultController) numReadRequests() int {
	if dr, ok := c.stream.rdr.(*DefaultReader); ok {
		return len(dr.readRequests)
	}
	return 0
}

// Enqueue appends chunk to the controller's queue, or, if a read is
// already pending, delivers it directly to the oldest ReadRequest,
// bypassing the queue. Precondition: state == Readable && !closeRequested.
func (c *DefaultController) Enqueue(chunk any) error {
	if c.stream.state != Readable || c.closeRequested {
		return ErrLocked
	}
	if dr, ok := c.stream.rdr.(*DefaultReader); ok && len(dr.readRequests) > 0 {
		req := dr.shiftReadRequest()
		c.stream.markDisturbed()
		req.ChunkSteps(chunk)
		c.pullIfNeeded()
		return nil
	}

	size := 1.0
	if c.sizeAlgorithm != nil {
		var err error
		size, err = c.sizeAlgorithm(chunk)
		if err != nil {
			// A size-algorithm failure errors the controller and is also
			// returned to the enqueue caller.
			c.errorController(err)
			return err
		}
	}
	c.queue = append(c.queue, queueEntry{chunk: chunk, size: size})
	c.queueTotalSize += size
	c.pullIfNeeded()
	return nil
}

// Close sets closeRequested; if the queue is already empty the stream
// transitions to Closed immediately, otherwise closure is deferred until
// the queue drains; chunks already queued are delivered before the close
// notification.
func (c *DefaultController) Close() {
	if c.stream.state != Readable || c.closeRequested {
		return
	}
	c.closeRequested = true
	if len(c.queue) == 0 {
		c.pullFn, c.cancelFn = nil, nil
		c.stream.transitionToClosed()
	}
}

// Error transitions the stream to Errored(e), clearing the queue and
// algorithms. Unlike Close it is immediate: already-queued chunks are
// dropped, not delivered.
func (c *DefaultController) Error(e error) { c.errorController(e) }

func (c *DefaultController) errorController(e error) {
	if c.stream.state != Readable {
		return
	}
	c.queue = nil
	c.queueTotalSize = 0
	c.pullFn, c.cancelFn = nil, nil
	c.stream.transitionToErrored(e)
}

func (c *DefaultController) cancelAlgorithm(reason any) *Future {
	f := NewFuture()
	c.queue = nil
	c.queueTotalSize = 0
	cancelFn := c.cancelFn
	c.pullFn, c.cancelFn = nil, nil
	if cancelFn == nil {
		f.Resolve(nil)
		return f
	}
	if err := cancelFn(reason); err != nil {
		f.Reject(err)
		return f
	}
	f.Resolve(nil)
	return f
}

func (c *DefaultController) isCloseRequested() bool { return c.closeRequested }
func (c *DefaultController) queueEmpty() bool       { return len(c.queue) == 0 }

// shouldPull reports the pull-if-needed predicate: the stream is
// Readable, the source has started, close has not been requested, and
// either a read is waiting or the queue is under its high-water mark.
func (c *DefaultController) shouldPull() bool {
	if c.stream.state != Readable || !c.started || c.closeRequested {
		return false
	}
	if c.numReadRequests() > 0 {
		return true
	}
	if ds := c.DesiredSize(); ds != nil && *ds > 0 {
		return true
	}
	return false
}

// pullIfNeeded serializes pull algorithm invocations behind the
// pulling/pullAgain latch; at most one pull call is outstanding per
// controller.
func (c *DefaultController) pullIfNeeded() {
	if !c.shouldPull() {
		return
	}
	if c.pulling {
		c.pullAgain = true
		return
	}
	c.pulling = true
	var err error
	if c.pullFn != nil {
		err = c.pullFn(c)
	}
	c.pulling = false
	if err != nil {
		c.errorController(err)
		return
	}
	if c.pullAgain {
		c.pullAgain = false
		c.pullIfNeeded()
	}
}

// fillReadRequestFromQueue shifts the oldest queue entry into req's chunk
// steps and, if that drains the queue of a closeRequested controller,
// closes the stream. Called by DefaultReader.Read.
func (c *DefaultController) fillReadRequestFromQueue(req ReadRequest) {
	entry := c.queue[0]
	c.queue = c.queue[1:]
	c.queueTotalSize -= entry.size
	if c.closeRequested && len(c.queue) == 0 {
		c.pullFn, c.cancelFn = nil, nil
		c.stream.transitionToClosed()
	} else {
		c.pullIfNeeded()
	}
	req.ChunkSteps(entry.chunk)
}
