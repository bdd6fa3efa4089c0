// Package streams implements the WHATWG Streams ReadableStream state
// machine: default and byte controllers, default and BYOB readers, tee,
// pipeTo, and async-iterator integration.
//
// There is no JS engine underneath this package, so the promise vocabulary
// of the WHATWG algorithms is realized as explicit callback triples
// (ReadRequest/ReadIntoRequest) and a minimal write-once Future rather
// than real promises. The cyclic reader/stream/controller relationship is
// expressed as owning handles with identity checks on release, not as a
// pointer graph.
package streams

import (
	"errors"
)

// State is a Stream's lifecycle state. Once State != Readable it never
// transitions back.
type State int

const (
	Readable State = iota
	Closed
	Errored
)

func (s State) String() string {
	switch s {
	case Readable:
		return "readable"
	case Closed:
		return "closed"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// ErrLocked is returned when an operation needs an unlocked stream
// (getReader on an already-locked stream, etc.); it corresponds to the
// TypeError the Streams standard throws for lock violations. The
// controllers' Enqueue also returns it once the stream is no longer
// readable or close has been requested.
var ErrLocked = errors.New("streams: ReadableStream is already locked to a reader")

// ErrWrongReaderKind is thrown by operations valid only for one reader kind
// (e.g. read(view) on a DefaultReader).
var ErrWrongReaderKind = errors.New("streams: wrong reader kind for this operation")

// ErrDetachedBuffer is returned when an operation observes a transferred
// (detached) buffer. Transfer is irreversible; a detached buffer never
// becomes readable again.
var ErrDetachedBuffer = errors.New("streams: buffer is detached")

// controller is implemented by *DefaultController and *ByteController; it
// gives Stream the polymorphic ops it needs without knowing which kind it
// owns.
type controller interface {
	errorController(err error)
	cancelAlgorithm(reason any) *Future
	isCloseRequested() bool
	queueEmpty() bool
}

// reader is implemented by *DefaultReader and *BYOBReader.
type reader interface {
	onStreamClosed()
	onStreamErrored(err error)
	release()
}

// Stream is a ReadableStream. The controller is set at construction,
// before the source's Start runs; the reader is nil whenever the stream
// is unlocked.
type Stream struct {
	state       State
	storedError error
	ctrl        controller
	rdr         reader
	disturbed   bool
}

// State returns the stream's current lifecycle state.
func (s *Stream) State() State { return s.state }

// StoredError returns the error an Errored stream was transitioned with;
// it is set iff State() == Errored.
func (s *Stream) StoredError() error { return s.storedError }

// Disturbed reports whether the stream has ever been read from or
// cancelled (used by tee/pipe to decide whether to warn on discard; kept
// for API completeness even though this package does not warn).
func (s *Stream) Disturbed() bool { return s.disturbed }

// Locked reports whether a reader currently holds this stream.
func (s *Stream) Locked() bool { return s.rdr != nil }

func (s *Stream) markDisturbed() { s.disturbed = true }

// transitionToErrored moves the stream to Errored(e) and notifies the
// current reader, if any. Idempotent past the first transition out of
// Readable.
func (s *Stream) transitionToErrored(e error) {
	if s.state != Readable {
		return
	}
	s.state = Errored
	s.storedError = e
	if s.rdr != nil {
		s.rdr.onStreamErrored(e)
	}
}

// transitionToClosed moves the stream to Closed and notifies the reader.
func (s *Stream) transitionToClosed() {
	if s.state != Readable {
		return
	}
	s.state = Closed
	if s.rdr != nil {
		s.rdr.onStreamClosed()
	}
}

// Cancel implements ReadableStream.cancel(reason). Cancelling an
// already-closed stream resolves immediately; cancelling an errored
// stream rejects with the stored error.
func (s *Stream) Cancel(reason any) *Future {
	s.markDisturbed()
	switch s.state {
	case Closed:
		f := NewFuture()
		f.Resolve(nil)
		return f
	case Errored:
		f := NewFuture()
		f.Reject(s.storedError)
		return f
	}
	s.transitionToClosed()
	if s.ctrl != nil {
		return s.ctrl.cancelAlgorithm(reason)
	}
	f := NewFuture()
	f.Resolve(nil)
	return f
}
