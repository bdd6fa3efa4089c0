package streams

import "testing"

func TestBYOBReadAccumulatesAcrossEnqueues(t *testing.T) {
	s, _ := NewReadableByteStream(ByteSource{})
	bc := s.ctrl.(*ByteController)
	br, err := s.GetBYOBReader()
	if err != nil {
		t.Fatalf("GetBYOBReader: %v", err)
	}

	var chunk []byte
	got := false
	buf := make([]byte, 6)
	br.Read(BYOBView{Buffer: buf, BufferByteLength: 6, ByteLength: 6, ElementSize: 1, Ctor: "Uint8Array"}, 4, ReadIntoRequest{
		ChunkSteps: func(c []byte, _ string) { chunk = c; got = true },
		CloseSteps: func([]byte, string) { t.Fatalf("unexpected close") },
		ErrorSteps: func(err error) { t.Fatalf("unexpected error: %v", err) },
	})
	if got {
		t.Fatalf("read committed before minimumFill reached")
	}

	if err := bc.Enqueue([]byte{1, 2}, 0, 2); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if got {
		t.Fatalf("read committed with only 2/4 minimum bytes filled")
	}

	if err := bc.Enqueue([]byte{3, 4}, 0, 2); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if !got {
		t.Fatalf("read did not commit once minimumFill (4) was reached")
	}
	if len(chunk) != 4 || chunk[0] != 1 || chunk[3] != 4 {
		t.Fatalf("chunk = %v, want [1 2 3 4]", chunk)
	}
}

// TestBYOBReleaseLeavesZombieDescriptor: releasing a BYOB reader
// with a pending pull-into leaves the descriptor in place with
// readerType None; the next Enqueue recovers its already-filled prefix
// into the regular queue instead of writing into the abandoned buffer.
func TestBYOBReleaseLeavesZombieDescriptor(t *testing.T) {
	s, _ := NewReadableByteStream(ByteSource{})
	bc := s.ctrl.(*ByteController)
	br, _ := s.GetBYOBReader()

	buf := make([]byte, 4)
	br.Read(BYOBView{Buffer: buf, BufferByteLength: 4, ByteLength: 4, ElementSize: 1, Ctor: "Uint8Array"}, 4, ReadIntoRequest{
		ChunkSteps: func([]byte, string) { t.Fatalf("should not commit") },
		CloseSteps: func([]byte, string) {},
		ErrorSteps: func(error) {},
	})
	if err := bc.Enqueue([]byte{1, 2}, 0, 2); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if len(bc.pendingPullIntos) != 1 {
		t.Fatalf("expected 1 pending pull-into, got %d", len(bc.pendingPullIntos))
	}

	br.ReleaseLock()
	if bc.pendingPullIntos[0].readerType != readerNone {
		t.Fatalf("released descriptor readerType = %v, want readerNone", bc.pendingPullIntos[0].readerType)
	}

	// This enqueue should discard the zombie descriptor, folding its
	// filled prefix (2 bytes) back into the regular queue ahead of the
	// new data.
	if err := bc.Enqueue([]byte{9, 9, 9}, 0, 3); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if len(bc.pendingPullIntos) != 0 {
		t.Fatalf("zombie descriptor should have been discarded")
	}

	r2, err := s.GetReader()
	if err != nil {
		t.Fatalf("GetReader: %v", err)
	}
	var first []byte
	r2.Read(ReadRequest{
		ChunkSteps: func(c any) { first = c.([]byte) },
		CloseSteps: func() {},
		ErrorSteps: func(error) {},
	})
	if len(first) != 2 || first[0] != 1 || first[1] != 2 {
		t.Fatalf("first chunk after zombie recovery = %v, want [1 2]", first)
	}
}

func TestBYOBReadOnClosedStreamReturnsEmptyView(t *testing.T) {
	s, _ := NewReadableByteStream(ByteSource{})
	bc := s.ctrl.(*ByteController)
	bc.Close()

	br, err := s.GetBYOBReader()
	if err != nil {
		t.Fatalf("GetBYOBReader: %v", err)
	}
	closed := false
	var gotChunk []byte
	buf := make([]byte, 4)
	br.Read(BYOBView{Buffer: buf, BufferByteLength: 4, ByteLength: 4, ElementSize: 1, Ctor: "Uint8Array"}, 1, ReadIntoRequest{
		ChunkSteps: func([]byte, string) { t.Fatalf("should not deliver a chunk") },
		CloseSteps: func(c []byte, _ string) { closed = true; gotChunk = c },
		ErrorSteps: func(error) { t.Fatalf("unexpected error") },
	})
	if !closed {
		t.Fatalf("expected close steps to fire for a read on an already-closed stream")
	}
	if len(gotChunk) != 0 {
		t.Fatalf("expected empty view, got length %d", len(gotChunk))
	}
}
