package streams

import "errors"

// ErrNotByteStream is returned by GetBYOBReader on a stream whose
// controller is not a ByteController; a BYOB reader only makes sense
// over a byte stream.
var ErrNotByteStream = errors.New("streams: stream is not a byte stream")

// ReadIntoRequest is the BYOB analogue of ReadRequest.
// ChunkSteps delivers a view filled to at least the read's minimum;
// CloseSteps delivers whatever partial
// view accumulated before the stream closed, which may have zero length.
type ReadIntoRequest struct {
	ChunkSteps func(chunk []byte, ctor string)
	CloseSteps func(chunk []byte, ctor string)
	ErrorSteps func(err error)
}

// BYOBView describes the caller-supplied buffer a BYOB read fills.
// Buffer must already
// be the transferred (detached-from-caller) backing store; Buffer == nil
// signals a transfer failure.
type BYOBView struct {
	Buffer           []byte
	BufferByteLength int
	ByteOffset       int
	ByteLength       int
	ElementSize      int
	Ctor             string
}

// BYOBReader is a ReadableStreamBYOBReader.
type BYOBReader struct {
	stream           *Stream
	readIntoRequests []ReadIntoRequest
	closed           *Future
}

// GetBYOBReader acquires a BYOBReader over s. Fails with ErrLocked if s
// already has a reader, or ErrNotByteStream if s is not a byte stream.
func (s *Stream) GetBYOBReader() (*BYOBReader, error) {
	if s.rdr != nil {
		return nil, ErrLocked
	}
	if _, ok := s.ctrl.(*ByteController); !ok {
		return nil, ErrNotByteStream
	}
	r := &BYOBReader{stream: s, closed: NewFuture()}
	s.rdr = r
	switch s.state {
	case Closed:
		r.closed.Resolve(nil)
	case Errored:
		r.closed.Reject(s.storedError)
	}
	return r, nil
}

func (r *BYOBReader) shiftReadIntoRequest() ReadIntoRequest {
	req := r.readIntoRequests[0]
	r.readIntoRequests = r.readIntoRequests[1:]
	return req
}

// Closed returns the reader's closed-promise stand-in.
func (r *BYOBReader) Closed() *Future { return r.closed }

// Read implements BYOBReader.read(view, {min}): a pull-into request
// against the caller-supplied view.
func (r *BYOBReader) Read(view BYOBView, min int, req ReadIntoRequest) {
	s := r.stream
	s.markDisturbed()
	if s.state == Errored {
		req.ErrorSteps(s.storedError)
		return
	}
	bc, ok := s.ctrl.(*ByteController)
	if !ok {
		req.ErrorSteps(ErrWrongReaderKind)
		return
	}
	if view.Buffer == nil {
		req.ErrorSteps(ErrDetachedBuffer)
		return
	}
	bc.pullInto(view, min, req, r)
}

// Cancel cancels the underlying stream with reason.
func (r *BYOBReader) Cancel(reason any) *Future { return r.stream.Cancel(reason) }

// ReleaseLock detaches the reader. Any pendingPullIntos descriptor still
// owned by this reader becomes a zombie (readerType none) rather than
// being discarded, so a later Enqueue can still recover its filled
// prefix.
func (r *BYOBReader) ReleaseLock() {
	if r.stream == nil || r.stream.rdr != r {
		return
	}
	pending := r.readIntoRequests
	r.readIntoRequests = nil
	if bc, ok := r.stream.ctrl.(*ByteController); ok {
		for _, d := range bc.pendingPullIntos {
			d.readerType = readerNone
		}
	}
	r.stream.rdr = nil
	r.stream = nil
	for _, req := range pending {
		req.ErrorSteps(ErrReleasedReader)
	}
}

func (r *BYOBReader) onStreamClosed() {
	for len(r.readIntoRequests) > 0 {
		req := r.shiftReadIntoRequest()
		req.CloseSteps(nil, "")
	}
	r.closed.Resolve(nil)
}

func (r *BYOBReader) onStreamErrored(err error) {
	for len(r.readIntoRequests) > 0 {
		req := r.shiftReadIntoRequest()
		req.ErrorSteps(err)
	}
	r.closed.Reject(err)
}

func (r *BYOBReader) release() { r.ReleaseLock() }

// pullInto implements the byte controller half of read(view, min). The
// buffer transfer itself is the caller's responsibility; BYOBView.Buffer
// arrives already transferred.
func (c *ByteController) pullInto(view BYOBView, min int, req ReadIntoRequest, br *BYOBReader) {
	d := &pullIntoDescriptor{
		buffer:           view.Buffer,
		bufferByteLength: view.BufferByteLength,
		byteOffset:       view.ByteOffset,
		byteLength:       view.ByteLength,
		minimumFill:      min * view.ElementSize,
		elementSize:      view.ElementSize,
		viewCtor:         view.Ctor,
		readerType:       readerByob,
	}

	if len(c.pendingPullIntos) > 0 {
		c.pendingPullIntos = append(c.pendingPullIntos, d)
		br.readIntoRequests = append(br.readIntoRequests, req)
		return
	}

	if c.stream.state == Closed {
		req.CloseSteps(view.Buffer[view.ByteOffset:view.ByteOffset], view.Ctor)
		return
	}

	for len(c.queue) > 0 && d.bytesFilled < d.byteLength {
		if !c.fillHeadPullIntoDescriptor(d) {
			break
		}
	}
	if d.bytesFilled >= d.minimumFill {
		c.deliverPullInto(d, req)
		return
	}
	if c.closeRequested {
		req.ErrorSteps(errTypeError("streams: byte stream closed before minimum BYOB fill was reached"))
		return
	}

	c.pendingPullIntos = append(c.pendingPullIntos, d)
	br.readIntoRequests = append(br.readIntoRequests, req)
	c.pullIfNeeded()
}

// deliverPullInto commits a descriptor that was filled directly out of
// the queue without ever entering pendingPullIntos (the read(view,min)
// fast path). It mirrors commitDescriptor's remainder-carry rule:
// non-element-aligned leftover bytes go back into the queue as a cloned
// chunk.
func (c *ByteController) deliverPullInto(d *pullIntoDescriptor, req ReadIntoRequest) {
	remainder := d.bytesFilled % d.elementSize
	deliverLen := d.bytesFilled - remainder
	view := append([]byte{}, d.buffer[d.byteOffset:d.byteOffset+deliverLen]...)
	if remainder > 0 {
		rem := append([]byte{}, d.buffer[d.byteOffset+deliverLen:d.byteOffset+d.bytesFilled]...)
		c.enqueueChunk(rem, 0, len(rem))
	}
	req.ChunkSteps(view, d.viewCtor)

	if c.closeRequested && len(c.queue) == 0 && len(c.pendingPullIntos) == 0 {
		c.pullFn, c.cancelFn = nil, nil
		c.stream.transitionToClosed()
	} else {
		c.pullIfNeeded()
	}
}

// errTypeError is a small helper so byte-controller protocol-misuse
// errors read the same as the rest of the package's TypeError-shaped
// errors.
func errTypeError(msg string) error { return errors.New(msg) }
