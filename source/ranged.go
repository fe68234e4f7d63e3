package source

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// readAtFunc reads exactly len(p) bytes at off. Callers clamp p to the
// object size before calling it.
type readAtFunc func(p []byte, off int64) (int, error)

// ranged turns a stateless range fetch into an io.ReadSeeker and
// io.ReaderAt. It is the common part of the HTTP and bucket readers.
type ranged struct {
	fetch readAtFunc
	size  int64

	// mu protects offset for sequential Read/Seek operations.
	mu     sync.Mutex
	offset int64
}

// Size returns the object size in bytes.
func (r *ranged) Size() int64 { return r.size }

// Read performs a sequential read. The lock is held for the duration of the
// underlying request.
func (r *ranged) Read(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.offset >= r.size {
		return 0, io.EOF
	}

	n, err = r.readAt(p, r.offset)
	if n > 0 {
		r.offset += int64(n)
	}
	return n, err
}

// Seek updates the internal offset for the next sequential Read.
func (r *ranged) Seek(offset int64, whence int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var newOffset int64
	switch whence {
	case io.SeekStart:
		newOffset = offset
	case io.SeekCurrent:
		newOffset = r.offset + offset
	case io.SeekEnd:
		newOffset = r.size + offset
	default:
		return 0, errors.New("invalid whence")
	}

	if newOffset < 0 {
		return 0, errors.New("cannot seek to negative offset")
	}
	r.offset = newOffset
	return r.offset, nil
}

// ReadAt implements io.ReaderAt for concurrent, stateless reads. It does not
// take the mutex and leaves the sequential offset alone.
func (r *ranged) ReadAt(p []byte, off int64) (n int, err error) {
	n, err = r.readAt(p, off)
	if err == nil && n < len(p) {
		err = io.EOF
	}
	return n, err
}

func (r *ranged) readAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("readAt: invalid offset %d", off)
	}
	if off >= r.size {
		return 0, io.EOF
	}

	length := int64(len(p))
	if off+length > r.size {
		length = r.size - off
	}
	return r.fetch(p[:length], off)
}
