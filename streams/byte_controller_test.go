package streams

import (
	"errors"
	"testing"
)

// TestByteStreamBYOBRespond:
// enqueue a 5-byte chunk; a BYOB read of a Uint8Array(10) with min=1 is
// filled at once with those 5 queued bytes. A second such read parks; the
// controller's BYOBRequest has view.byteLength=10, and after 3 bytes are
// written into it and respond(3) is called, the reader resolves with a
// Uint8Array of length 3 holding the written bytes.
func TestByteStreamBYOBRespond(t *testing.T) {
	s, err := NewReadableByteStream(ByteSource{})
	if err != nil {
		t.Fatalf("NewReadableByteStream: %v", err)
	}
	bc := s.ctrl.(*ByteController)
	if err := bc.Enqueue([]byte{1, 2, 3, 4, 5}, 0, 5); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	br, err := s.GetBYOBReader()
	if err != nil {
		t.Fatalf("GetBYOBReader: %v", err)
	}

	var chunk []byte
	buf := make([]byte, 10)
	br.Read(BYOBView{Buffer: buf, BufferByteLength: 10, ByteOffset: 0, ByteLength: 10, ElementSize: 1, Ctor: "Uint8Array"}, 1, ReadIntoRequest{
		ChunkSteps: func(c []byte, ctor string) {
			chunk = c
			if ctor != "Uint8Array" {
				t.Fatalf("ctor = %q, want Uint8Array", ctor)
			}
		},
		CloseSteps: func([]byte, string) { t.Fatalf("unexpected close") },
		ErrorSteps: func(err error) { t.Fatalf("unexpected error: %v", err) },
	})

	if len(chunk) != 5 {
		t.Fatalf("direct-fill chunk length = %d, want 5 (queue already had 5 bytes >= min)", len(chunk))
	}

	// Second read: nothing queued, so it parks; BYOBRequest should expose
	// a 10-byte view (the full remaining capacity), and respond(3) should
	// resolve with exactly 3 bytes.
	chunk = nil
	buf2 := make([]byte, 10)
	br.Read(BYOBView{Buffer: buf2, BufferByteLength: 10, ByteOffset: 0, ByteLength: 10, ElementSize: 1, Ctor: "Uint8Array"}, 1, ReadIntoRequest{
		ChunkSteps: func(c []byte, ctor string) { chunk = c },
		CloseSteps: func([]byte, string) { t.Fatalf("unexpected close") },
		ErrorSteps: func(err error) { t.Fatalf("unexpected error: %v", err) },
	})

	req := bc.GetBYOBRequest()
	if req == nil {
		t.Fatalf("GetBYOBRequest returned nil")
	}
	if len(req.View()) != 10 {
		t.Fatalf("BYOBRequest view length = %d, want 10", len(req.View()))
	}

	copy(req.View(), []byte{9, 8, 7})
	if err := req.Respond(3); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if len(chunk) != 3 || chunk[0] != 9 || chunk[1] != 8 || chunk[2] != 7 {
		t.Fatalf("chunk = %v, want [9 8 7]", chunk)
	}
}

func TestByteControllerRespondZeroOnlyWhenClosed(t *testing.T) {
	s, _ := NewReadableByteStream(ByteSource{})
	bc := s.ctrl.(*ByteController)
	br, _ := s.GetBYOBReader()
	buf := make([]byte, 4)
	br.Read(BYOBView{Buffer: buf, BufferByteLength: 4, ByteLength: 4, ElementSize: 1, Ctor: "Uint8Array"}, 1, ReadIntoRequest{
		ChunkSteps: func([]byte, string) {},
		CloseSteps: func([]byte, string) {},
		ErrorSteps: func(error) {},
	})
	if err := bc.Respond(0); !errors.Is(err, ErrInvalidRespond) {
		t.Fatalf("Respond(0) on non-closed stream = %v, want ErrInvalidRespond", err)
	}
}

func TestByteControllerRespondOutOfRange(t *testing.T) {
	s, _ := NewReadableByteStream(ByteSource{})
	bc := s.ctrl.(*ByteController)
	br, _ := s.GetBYOBReader()
	buf := make([]byte, 4)
	br.Read(BYOBView{Buffer: buf, BufferByteLength: 4, ByteLength: 4, ElementSize: 1, Ctor: "Uint8Array"}, 1, ReadIntoRequest{
		ChunkSteps: func([]byte, string) {},
		CloseSteps: func([]byte, string) {},
		ErrorSteps: func(error) {},
	})
	if err := bc.Respond(5); !errors.Is(err, ErrInvalidRespond) {
		t.Fatalf("Respond(5) over capacity = %v, want ErrInvalidRespond", err)
	}
}

func TestByteControllerCloseWithPendingQueueDelays(t *testing.T) {
	s, _ := NewReadableByteStream(ByteSource{})
	bc := s.ctrl.(*ByteController)
	_ = bc.Enqueue([]byte{1, 2}, 0, 2)
	bc.Close()
	if s.State() != Readable {
		t.Fatalf("state = %v, want Readable (queue not drained)", s.State())
	}
}

func TestByteControllerDefaultReaderReadsUint8Array(t *testing.T) {
	s, _ := NewReadableByteStream(ByteSource{})
	bc := s.ctrl.(*ByteController)
	_ = bc.Enqueue([]byte{7, 8, 9}, 0, 3)

	r, err := s.GetReader()
	if err != nil {
		t.Fatalf("GetReader: %v", err)
	}
	var got []byte
	r.Read(ReadRequest{
		ChunkSteps: func(chunk any) { got = chunk.([]byte) },
		CloseSteps: func() { t.Fatalf("unexpected close") },
		ErrorSteps: func(err error) { t.Fatalf("unexpected error: %v", err) },
	})
	if len(got) != 3 || got[0] != 7 {
		t.Fatalf("got %v, want [7 8 9]", got)
	}
}

func TestGetBYOBReaderRejectsNonByteStream(t *testing.T) {
	s, _ := NewReadableStream(DefaultSource{})
	if _, err := s.GetBYOBReader(); !errors.Is(err, ErrNotByteStream) {
		t.Fatalf("GetBYOBReader on default stream = %v, want ErrNotByteStream", err)
	}
}
