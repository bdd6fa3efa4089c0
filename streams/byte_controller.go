package streams

import "errors"

// ErrInvalidRespond covers the RangeError cases of respond() and
// respondWithNewView(): bytesWritten out of range, or view geometry
// that doesn't match the head descriptor.
var ErrInvalidRespond = errors.New("streams: invalid BYOB respond")

// readerKind tags a pull-into descriptor's owner. readerNone marks a
// "zombie" descriptor left behind by a released BYOB reader.
type readerKind int

const (
	readerNone readerKind = iota
	readerDefault
	readerByob
)

// pullIntoDescriptor tracks destination buffer geometry and fill progress
// for one BYOB read. buffer is replaced, never mutated, on each transfer.
type pullIntoDescriptor struct {
	buffer           []byte
	bufferByteLength int
	byteOffset       int
	byteLength       int
	bytesFilled      int
	minimumFill      int
	elementSize      int
	viewCtor         string
	readerType       readerKind
}

type byteQueueEntry struct {
	buffer     []byte
	byteOffset int
	byteLength int
}

// ByteSource is the underlying byte source an embedder supplies.
type ByteSource struct {
	Start                 func(c *ByteController) error
	Pull                  func(c *ByteController) error
	Cancel                func(reason any) error
	AutoAllocateChunkSize int // 0 means no auto-allocation
}

// ByteController is a ReadableByteStreamController: an ordered queue of
// (buffer, byteOffset, byteLength), an ordered list of pull-into
// descriptors, and at most one live BYOBRequest at a time.
type ByteController struct {
	stream *Stream

	queue                 []byteQueueEntry
	queueTotalSize        int
	autoAllocateChunkSize int
	pendingPullIntos      []*pullIntoDescriptor
	byobRequest           *BYOBRequest

	pullFn   func(c *ByteController) error
	cancelFn func(reason any) error

	started        bool
	pulling        bool
	pullAgain      bool
	closeRequested bool
}

// NewReadableByteStream constructs a byte ReadableStream.
func NewReadableByteStream(src ByteSource) (*Stream, error) {
	s := &Stream{state: Readable}
	c := &ByteController{
		stream:                s,
		autoAllocateChunkSize: src.AutoAllocateChunkSize,
		pullFn:                src.Pull,
		cancelFn:              src.Cancel,
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

func (c *ByteController) Stream() *Stream { return c.stream }

func (c *ByteController) isCloseRequested() bool { return c.closeRequested }
func (c *ByteController) queueEmpty() bool       { return len(c.queue) == 0 }

func (c *ByteController) DesiredSize() *float64 {
	if c.stream.state != Readable {
		return nil
	}
	d := float64(-c.queueTotalSize)
	return &d
}

// Enqueue appends a chunk. Two cases need care:
//   - a BYOB reader with a zombie (readerType None) head descriptor: the
//     already-filled prefix is moved into the queue and the descriptor
//     discarded;
//   - a default reader with an outstanding read while pendingPullIntos is
//     non-empty: the stale BYOB intent is abandoned and the transferred
//     view is delivered to the read request directly.
func (c *ByteController) Enqueue(buffer []byte, byteOffset, byteLength int) error {
	if c.stream.state != Readable || c.closeRequested {
		return ErrLocked
	}

	if len(c.pendingPullIntos) > 0 {
		head := c.pendingPullIntos[0]
		if head.readerType == readerNone {
			c.invalidateBYOBRequest()
			c.pendingPullIntos = c.pendingPullIntos[1:]
			clone := append([]byte{}, head.buffer[head.byteOffset:head.byteOffset+head.bytesFilled]...)
			if head.bytesFilled > 0 {
				c.enqueueChunk(clone, 0, len(clone))
			}
		}
	}

	if _, ok := c.stream.rdr.(*DefaultReader); ok {
		if dr := c.stream.rdr.(*DefaultReader); len(dr.readRequests) > 0 {
			if len(c.pendingPullIntos) > 0 {
				c.invalidateBYOBRequest()
				c.pendingPullIntos = c.pendingPullIntos[1:]
			}
			req := dr.shiftReadRequest()
			c.stream.markDisturbed()
			view := append([]byte{}, buffer[byteOffset:byteOffset+byteLength]...)
			req.ChunkSteps(view)
			c.pullIfNeeded()
			return nil
		}
	}

	if len(c.pendingPullIntos) > 0 {
		c.invalidateBYOBRequest()
	}
	c.enqueueChunk(buffer, byteOffset, byteLength)
	c.processPullIntoDescriptorsUsingQueue()
	c.pullIfNeeded()
	return nil
}

// fillReadRequestFromQueue services a DefaultReader.Read over a byte
// stream: the front queue entry is delivered whole as a []byte chunk.
func (c *ByteController) fillReadRequestFromQueue(req ReadRequest) {
	entry := c.queue[0]
	c.queue = c.queue[1:]
	c.queueTotalSize -= entry.byteLength
	chunk := append([]byte{}, entry.buffer[entry.byteOffset:entry.byteOffset+entry.byteLength]...)
	if c.closeRequested && len(c.queue) == 0 {
		c.pullFn, c.cancelFn = nil, nil
		c.stream.transitionToClosed()
	} else {
		c.pullIfNeeded()
	}
	req.ChunkSteps(chunk)
}

func (c *ByteController) enqueueChunk(buffer []byte, byteOffset, byteLength int) {
	c.queue = append(c.queue, byteQueueEntry{buffer: buffer, byteOffset: byteOffset, byteLength: byteLength})
	c.queueTotalSize += byteLength
}

// Close mirrors DefaultController.Close, additionally committing any
// descriptors left over for outstanding BYOB readers as close
// notifications.
func (c *ByteController) Close() {
	if c.stream.state != Readable || c.closeRequested {
		return
	}
	c.closeRequested = true
	if len(c.queue) > 0 {
		return
	}
	if len(c.pendingPullIntos) > 0 {
		head := c.pendingPullIntos[0]
		if head.bytesFilled%head.elementSize != 0 {
			c.errorController(errors.New("streams: byte stream closed mid-chunk, partial BYOB view is not element-aligned"))
			return
		}
	}
	c.pullFn, c.cancelFn = nil, nil
	c.stream.transitionToClosed()
}

func (c *ByteController) Error(e error) { c.errorController(e) }

func (c *ByteController) errorController(e error) {
	if c.stream.state != Readable {
		return
	}
	c.queue = nil
	c.queueTotalSize = 0
	c.pendingPullIntos = nil
	c.invalidateBYOBRequest()
	c.pullFn, c.cancelFn = nil, nil
	c.stream.transitionToErrored(e)
}

func (c *ByteController) cancelAlgorithm(reason any) *Future {
	f := NewFuture()
	c.queue = nil
	c.queueTotalSize = 0
	c.pendingPullIntos = nil
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

func (c *ByteController) shouldPull() bool {
	if c.stream.state != Readable || !c.started || c.closeRequested {
		return false
	}
	numReads := 0
	if dr, ok := c.stream.rdr.(*DefaultReader); ok {
		numReads = len(dr.readRequests)
	}
	if numReads > 0 {
		return true
	}
	if br, ok := c.stream.rdr.(*BYOBReader); ok && len(br.readIntoRequests) > 0 {
		return true
	}
	if ds := c.DesiredSize(); ds != nil && *ds > 0 {
		return true
	}
	return false
}

func (c *ByteController) pullIfNeeded() {
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

// GetBYOBRequest lazily materializes the controller's BYOBRequest over the
// head pending-pull-into descriptor's remaining region. Returns nil if
// there is no pending pull-into.
func (c *ByteController) GetBYOBRequest() *BYOBRequest {
	if c.byobRequest != nil {
		return c.byobRequest
	}
	if len(c.pendingPullIntos) == 0 {
		return nil
	}
	d := c.pendingPullIntos[0]
	view := d.buffer[d.byteOffset+d.bytesFilled : d.byteOffset+d.byteLength]
	c.byobRequest = &BYOBRequest{controller: c, view: view}
	return c.byobRequest
}

func (c *ByteController) invalidateBYOBRequest() {
	if c.byobRequest == nil {
		return
	}
	c.byobRequest.controller = nil
	c.byobRequest.view = nil
	c.byobRequest = nil
}

// BYOBRequest exposes the controller's current pending-pull-into target
// to a pull algorithm. Its reference to the controller is cleared
// whenever the underlying descriptor is mutated or shifted.
type BYOBRequest struct {
	controller *ByteController
	view       []byte
}

// View returns the writable region the pull algorithm should fill, or nil
// if this request has been invalidated.
func (r *BYOBRequest) View() []byte { return r.view }

// Respond is sugar for controller.Respond(bytesWritten) after the
// caller has written into View() directly.
func (r *BYOBRequest) Respond(bytesWritten int) error {
	if r.controller == nil {
		return ErrInvalidRespond
	}
	return r.controller.Respond(bytesWritten)
}

// processPullIntoDescriptorsUsingQueue tries to fill as many queued
// pending-pull-into descriptors as the queue currently allows, committing
// each that reaches its minimumFill.
func (c *ByteController) processPullIntoDescriptorsUsingQueue() {
	if c.closeRequested {
		return
	}
	for len(c.pendingPullIntos) > 0 && len(c.queue) > 0 {
		d := c.pendingPullIntos[0]
		if !c.fillHeadPullIntoDescriptor(d) {
			break
		}
		if d.bytesFilled < d.minimumFill {
			continue
		}
		c.shiftAndCommit(d)
	}
}

// fillHeadPullIntoDescriptor copies as much of the queue's front as fits
// into d, returns true if it made progress.
func (c *ByteController) fillHeadPullIntoDescriptor(d *pullIntoDescriptor) bool {
	if len(c.queue) == 0 {
		return false
	}
	entry := &c.queue[0]
	n := d.byteLength - d.bytesFilled
	if n > entry.byteLength {
		n = entry.byteLength
	}
	copy(d.buffer[d.byteOffset+d.bytesFilled:], entry.buffer[entry.byteOffset:entry.byteOffset+n])
	d.bytesFilled += n
	c.queueTotalSize -= n
	if n == entry.byteLength {
		c.queue = c.queue[1:]
	} else {
		entry.byteOffset += n
		entry.byteLength -= n
	}
	return true
}

func (c *ByteController) shiftAndCommit(d *pullIntoDescriptor) {
	c.invalidateBYOBRequest()
	c.pendingPullIntos = c.pendingPullIntos[1:]
	c.commitDescriptor(d)
	if c.closeRequested && len(c.pendingPullIntos) == 0 {
		c.pullFn, c.cancelFn = nil, nil
		c.stream.transitionToClosed()
	}
}

// commitDescriptor delivers d to whichever reader parked it, trimming to
// the element-aligned prefix and carrying any remainder-bytes back into
// the queue as a cloned chunk.
func (c *ByteController) commitDescriptor(d *pullIntoDescriptor) {
	remainder := d.bytesFilled % d.elementSize
	deliverLen := d.bytesFilled - remainder
	view := append([]byte{}, d.buffer[d.byteOffset:d.byteOffset+deliverLen]...)

	if remainder > 0 {
		rem := append([]byte{}, d.buffer[d.byteOffset+deliverLen:d.byteOffset+d.bytesFilled]...)
		c.enqueueChunk(rem, 0, len(rem))
	}

	switch d.readerType {
	case readerByob:
		if br, ok := c.stream.rdr.(*BYOBReader); ok && len(br.readIntoRequests) > 0 {
			req := br.shiftReadIntoRequest()
			req.ChunkSteps(view, d.viewCtor)
		}
	case readerDefault:
		if dr, ok := c.stream.rdr.(*DefaultReader); ok && len(dr.readRequests) > 0 {
			req := dr.shiftReadRequest()
			req.ChunkSteps(view)
		}
	}
}

// Respond implements BYOBRequest.respond(bytesWritten): bytesWritten
// must be 0 iff the stream is closed; otherwise bytesFilled+bytesWritten
// must not exceed byteLength.
func (c *ByteController) Respond(bytesWritten int) error {
	if len(c.pendingPullIntos) == 0 {
		return ErrInvalidRespond
	}
	d := c.pendingPullIntos[0]
	if c.stream.state != Readable {
		if bytesWritten != 0 {
			return ErrInvalidRespond
		}
		return c.respondClosed(d)
	}
	if bytesWritten == 0 {
		return ErrInvalidRespond
	}
	if d.bytesFilled+bytesWritten > d.byteLength {
		return ErrInvalidRespond
	}
	d.bytesFilled += bytesWritten
	c.invalidateBYOBRequest()

	if d.bytesFilled < d.minimumFill {
		return nil
	}
	c.pendingPullIntos = c.pendingPullIntos[1:]
	c.commitDescriptor(d)
	c.processPullIntoDescriptorsUsingQueue()
	c.pullIfNeeded()
	return nil
}

// respondClosed commits every remaining pending-pull-into descriptor as a
// close notification to its outstanding BYOB reader. All of
// pendingPullIntos, not just the head.
func (c *ByteController) respondClosed(d *pullIntoDescriptor) error {
	if d.bytesFilled%d.elementSize != 0 {
		return ErrInvalidRespond
	}
	c.invalidateBYOBRequest()
	for len(c.pendingPullIntos) > 0 {
		desc := c.pendingPullIntos[0]
		c.pendingPullIntos = c.pendingPullIntos[1:]
		if br, ok := c.stream.rdr.(*BYOBReader); ok && len(br.readIntoRequests) > 0 {
			req := br.shiftReadIntoRequest()
			view := append([]byte{}, desc.buffer[desc.byteOffset:desc.byteOffset+desc.bytesFilled]...)
			req.CloseSteps(view, desc.viewCtor)
		}
	}
	c.pullFn, c.cancelFn = nil, nil
	c.stream.transitionToClosed()
	return nil
}

// RespondWithNewView implements BYOBRequest.respondWithNewView(view):
// view.byteOffset must equal descriptor.byteOffset + descriptor.bytesFilled;
// view.buffer.byteLength must equal descriptor.bufferByteLength. After
// validation, the descriptor's buffer is replaced by the view's transferred
// buffer and dispatch proceeds as if Respond(view.byteLength) had been
// called.
func (c *ByteController) RespondWithNewView(buf []byte, viewByteOffset, viewByteLength, bufferByteLength int) error {
	if len(c.pendingPullIntos) == 0 {
		return ErrInvalidRespond
	}
	d := c.pendingPullIntos[0]
	if viewByteOffset != d.byteOffset+d.bytesFilled {
		return ErrInvalidRespond
	}
	if bufferByteLength != d.bufferByteLength {
		return ErrInvalidRespond
	}
	if buf == nil {
		return ErrDetachedBuffer
	}
	d.buffer = buf
	d.bufferByteLength = bufferByteLength
	return c.Respond(viewByteLength)
}
