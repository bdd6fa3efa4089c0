package streams

import "errors"

// ReadRequest is the callback triple a default read parks on the reader:
// the stream guarantees exactly one of the three fires, exactly once.
type ReadRequest struct {
	ChunkSteps func(chunk any)
	CloseSteps func()
	ErrorSteps func(err error)
}

// DefaultReader is a ReadableStreamDefaultReader. It holds a FIFO of
// outstanding ReadRequests and a Future standing in for the reader's
// closed promise.
type DefaultReader struct {
	stream       *Stream
	readRequests []ReadRequest
	closed       *Future
}

// GetReader acquires a DefaultReader over s. Fails with ErrLocked if s
// already has a reader; a stream owns at most one reader at a time.
func (s *Stream) GetReader() (*DefaultReader, error) {
	if s.rdr != nil {
		return nil, ErrLocked
	}
	r := &DefaultReader{stream: s, closed: NewFuture()}
	s.rdr = r
	switch s.state {
	case Closed:
		r.closed.Resolve(nil)
	case Errored:
		r.closed.Reject(s.storedError)
	}
	return r, nil
}

func (r *DefaultReader) shiftReadRequest() ReadRequest {
	req := r.readRequests[0]
	r.readRequests = r.readRequests[1:]
	return req
}

// Closed returns the reader's closed-promise stand-in: it resolves when
// the stream closes, rejects when it errors.
func (r *DefaultReader) Closed() *Future { return r.closed }

// Read enqueues req and services it immediately if data (or a close/error)
// is already available, else parks it FIFO behind any already-pending
// reads; chunks enqueued by the controller match requests in FIFO order.
func (r *DefaultReader) Read(req ReadRequest) {
	s := r.stream
	s.markDisturbed()
	switch s.state {
	case Closed:
		req.CloseSteps()
		return
	case Errored:
		req.ErrorSteps(s.storedError)
		return
	}
	// A default reader works over either controller kind: over a byte
	// controller it yields whatever the queue's front entry holds as a
	// []byte chunk; byte controllers serve default and BYOB readers
	// alike.
	switch ctrl := s.ctrl.(type) {
	case *DefaultController:
		if len(ctrl.queue) > 0 {
			ctrl.fillReadRequestFromQueue(req)
			return
		}
		r.readRequests = append(r.readRequests, req)
		ctrl.pullIfNeeded()
	case *ByteController:
		if len(ctrl.queue) > 0 {
			ctrl.fillReadRequestFromQueue(req)
			return
		}
		r.readRequests = append(r.readRequests, req)
		ctrl.pullIfNeeded()
	default:
		req.ErrorSteps(ErrWrongReaderKind)
	}
}

// Cancel cancels the underlying stream with reason.
func (r *DefaultReader) Cancel(reason any) *Future { return r.stream.Cancel(reason) }

// ReleaseLock detaches the reader from its stream; every outstanding read
// request's error steps fire with ErrReleasedReader.
func (r *DefaultReader) ReleaseLock() {
	if r.stream == nil || r.stream.rdr != r {
		return
	}
	pending := r.readRequests
	r.readRequests = nil
	r.stream.rdr = nil
	r.stream = nil
	for _, req := range pending {
		req.ErrorSteps(ErrReleasedReader)
	}
}

func (r *DefaultReader) onStreamClosed() {
	for len(r.readRequests) > 0 {
		req := r.shiftReadRequest()
		req.CloseSteps()
	}
	r.closed.Resolve(nil)
}

func (r *DefaultReader) onStreamErrored(err error) {
	for len(r.readRequests) > 0 {
		req := r.shiftReadRequest()
		req.ErrorSteps(err)
	}
	r.closed.Reject(err)
}

func (r *DefaultReader) release() { r.ReleaseLock() }

// ErrReleasedReader is delivered to outstanding read requests when their
// reader is released before the read settles.
var ErrReleasedReader = errors.New("streams: reader was released")
