package streams

import (
	"errors"
	"testing"
)

func newCountingStream(t *testing.T, max int) *Stream {
	t.Helper()
	n := 0
	s, err := NewReadableStream(DefaultSource{
		Pull: func(c *DefaultController) error {
			n++
			if n > max {
				c.Close()
				return nil
			}
			return c.Enqueue(n)
		},
	})
	if err != nil {
		t.Fatalf("NewReadableStream: %v", err)
	}
	return s
}

func TestDefaultStreamBasicRead(t *testing.T) {
	s := newCountingStream(t, 3)
	r, err := s.GetReader()
	if err != nil {
		t.Fatalf("GetReader: %v", err)
	}

	var got []any
	done := false
	for !done {
		readDone := false
		r.Read(ReadRequest{
			ChunkSteps: func(chunk any) { got = append(got, chunk) },
			CloseSteps: func() { readDone = true; done = true },
			ErrorSteps: func(err error) { t.Fatalf("unexpected error: %v", err) },
		})
		if readDone {
			break
		}
	}

	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("got %v, want [1 2 3]", got)
	}
	if s.State() != Closed {
		t.Fatalf("state = %v, want Closed", s.State())
	}
}

func TestDefaultControllerEnqueueAfterClose(t *testing.T) {
	s, err := NewReadableStream(DefaultSource{})
	if err != nil {
		t.Fatalf("NewReadableStream: %v", err)
	}
	c := s.ctrl.(*DefaultController)
	c.Close()
	if err := c.Enqueue("x"); !errors.Is(err, ErrLocked) {
		t.Fatalf("Enqueue after close = %v, want ErrLocked", err)
	}
}

func TestDefaultControllerCloseDelaysUntilQueueDrains(t *testing.T) {
	s, err := NewReadableStream(DefaultSource{})
	if err != nil {
		t.Fatalf("NewReadableStream: %v", err)
	}
	c := s.ctrl.(*DefaultController)
	if err := c.Enqueue("a"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	c.Close()
	if s.State() != Readable {
		t.Fatalf("state = %v, want Readable (queue not drained yet)", s.State())
	}

	r, err := s.GetReader()
	if err != nil {
		t.Fatalf("GetReader: %v", err)
	}
	var chunk any
	r.Read(ReadRequest{
		ChunkSteps: func(c any) { chunk = c },
		CloseSteps: func() { t.Fatalf("close steps fired before queue drained") },
		ErrorSteps: func(err error) { t.Fatalf("unexpected error: %v", err) },
	})
	if chunk != "a" {
		t.Fatalf("chunk = %v, want a", chunk)
	}
	if s.State() != Closed {
		t.Fatalf("state = %v, want Closed after queue drains", s.State())
	}
}

func TestDefaultControllerErrorPreemptsQueue(t *testing.T) {
	s, err := NewReadableStream(DefaultSource{})
	if err != nil {
		t.Fatalf("NewReadableStream: %v", err)
	}
	c := s.ctrl.(*DefaultController)
	_ = c.Enqueue("a")
	boom := errors.New("boom")
	c.Error(boom)

	if s.State() != Errored {
		t.Fatalf("state = %v, want Errored", s.State())
	}
	if !errors.Is(s.StoredError(), boom) {
		t.Fatalf("storedError = %v, want %v", s.StoredError(), boom)
	}
	if len(c.queue) != 0 {
		t.Fatalf("queue not cleared on error")
	}
}

func TestDefaultReaderPendingReadFiresFromEnqueue(t *testing.T) {
	s, err := NewReadableStream(DefaultSource{})
	if err != nil {
		t.Fatalf("NewReadableStream: %v", err)
	}
	c := s.ctrl.(*DefaultController)
	r, err := s.GetReader()
	if err != nil {
		t.Fatalf("GetReader: %v", err)
	}

	var got any
	fired := false
	r.Read(ReadRequest{
		ChunkSteps: func(chunk any) { got = chunk; fired = true },
		CloseSteps: func() {},
		ErrorSteps: func(err error) {},
	})
	if fired {
		t.Fatalf("read fired before any chunk was available")
	}
	if err := c.Enqueue(42); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if !fired || got != 42 {
		t.Fatalf("got fired=%v got=%v, want fired=true got=42", fired, got)
	}
}

func TestSizeAlgorithmThrowErrorsController(t *testing.T) {
	boom := errors.New("bad size")
	s, err := NewReadableStream(DefaultSource{
		Size: func(chunk any) (float64, error) { return 0, boom },
	})
	if err != nil {
		t.Fatalf("NewReadableStream: %v", err)
	}
	c := s.ctrl.(*DefaultController)
	if err := c.Enqueue("x"); !errors.Is(err, boom) {
		t.Fatalf("Enqueue error = %v, want %v", err, boom)
	}
	if s.State() != Errored {
		t.Fatalf("state = %v, want Errored", s.State())
	}
}

func TestCancelIdempotence(t *testing.T) {
	s, err := NewReadableStream(DefaultSource{})
	if err != nil {
		t.Fatalf("NewReadableStream: %v", err)
	}
	c := s.ctrl.(*DefaultController)
	c.Close()

	settled := false
	var rejected error
	s.Cancel("reason").OnSettle(func(any) { settled = true }, func(e error) { rejected = e })
	if !settled || rejected != nil {
		t.Fatalf("cancel of closed stream should resolve immediately")
	}

	s2, _ := NewReadableStream(DefaultSource{})
	boom := errors.New("boom")
	s2.ctrl.(*DefaultController).Error(boom)
	var got error
	s2.Cancel("reason").OnSettle(func(any) { t.Fatalf("should reject") }, func(e error) { got = e })
	if !errors.Is(got, boom) {
		t.Fatalf("cancel of errored stream = %v, want %v", got, boom)
	}
}

func TestGetReaderLocksStream(t *testing.T) {
	s, _ := NewReadableStream(DefaultSource{})
	if _, err := s.GetReader(); err != nil {
		t.Fatalf("GetReader: %v", err)
	}
	if _, err := s.GetReader(); !errors.Is(err, ErrLocked) {
		t.Fatalf("second GetReader = %v, want ErrLocked", err)
	}
}
