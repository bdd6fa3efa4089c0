package streams

// IteratorResult is the {value, done} pair a ReadableStream's async
// iterator yields.
type IteratorResult struct {
	Value any
	Done  bool
}

// AsyncIterator is the stream's async-iteration surface: acquiring one
// acquires a DefaultReader internally, and each Next() is a read-request
// resolving {value, done} on the same ReadRequest primitive every other
// read uses.
type AsyncIterator struct {
	reader        *DefaultReader
	preventCancel bool
}

// AsyncIterator acquires an async iterator over s. preventCancel mirrors
// the {preventCancel} option passed to Symbol.asyncIterator.
func (s *Stream) AsyncIterator(preventCancel bool) (*AsyncIterator, error) {
	r, err := s.GetReader()
	if err != nil {
		return nil, err
	}
	return &AsyncIterator{reader: r, preventCancel: preventCancel}, nil
}

// Next reads the next value. The returned Future resolves to an
// IteratorResult or rejects with the stream's stored error.
func (it *AsyncIterator) Next() *Future {
	f := NewFuture()
	it.reader.Read(ReadRequest{
		ChunkSteps: func(chunk any) { f.Resolve(IteratorResult{Value: chunk}) },
		CloseSteps: func() { f.Resolve(IteratorResult{Done: true}) },
		ErrorSteps: func(err error) { f.Reject(err) },
	})
	return f
}

// Return implements the iterator protocol's return(): releases the
// reader and, unless preventCancel, cancels the stream with value.
func (it *AsyncIterator) Return(value any) *Future {
	f := NewFuture()
	if it.preventCancel {
		it.reader.ReleaseLock()
		f.Resolve(IteratorResult{Value: value, Done: true})
		return f
	}
	it.reader.Cancel(value).OnSettle(
		func(any) {
			it.reader.ReleaseLock()
			f.Resolve(IteratorResult{Value: value, Done: true})
		},
		func(err error) {
			it.reader.ReleaseLock()
			f.Reject(err)
		},
	)
	return f
}
