// Package container decodes the IDA container header (either a bundle file
// or a directory of sibling files) and presents each logical section as a
// seekable byte window.
package container

import (
	"io"

	"github.com/scigolib/idbtree/internal/utils"
)

// Section presents a seekable, bounded byte window over a parent
// io.ReaderAt. It is the C1 "Section Reader": reads are clamped to
// [start, end) and seeks outside [0, end-start] fail with ErrBadOffset.
//
// Multiple Sections may share one parent concurrently within a single
// thread: every read re-derives an absolute offset into the parent and
// issues a ReadAt, so windows never perturb each other's position.
type Section struct {
	parent   io.ReaderAt
	start    int64
	end      int64
	pos      int64 // logical position, relative to start
}

// NewSection returns a window over parent covering the absolute byte
// range [start, end).
func NewSection(parent io.ReaderAt, start, end int64) *Section {
	return &Section{parent: parent, start: start, end: end}
}

// Len returns the window's size in bytes.
func (s *Section) Len() int64 {
	return s.end - s.start
}

// Read implements io.Reader. A read that would cross the window boundary
// is clamped to the remaining bytes; a read at the boundary returns
// io.EOF with zero bytes.
func (s *Section) Read(p []byte) (int, error) {
	remaining := s.end - s.start - s.pos
	if remaining <= 0 {
		return 0, io.EOF
	}
	want := int64(len(p))
	if want > remaining {
		want = remaining
	}
	n, err := s.parent.ReadAt(p[:want], s.start+s.pos)
	s.pos += int64(n)
	if err != nil && err != io.EOF {
		return n, utils.WrapError("section read", err)
	}
	return n, nil
}

// ReadAt implements io.ReaderAt against the window's own coordinate
// space, independent of the logical cursor used by Read/Seek.
func (s *Section) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > s.end-s.start {
		return 0, utils.WrapError("section read-at", utils.ErrBadOffset)
	}
	remaining := s.end - s.start - off
	want := int64(len(p))
	clamped := false
	if want > remaining {
		want = remaining
		clamped = true
	}
	if want <= 0 {
		return 0, io.EOF
	}
	n, err := s.parent.ReadAt(p[:want], s.start+off)
	if err != nil && err != io.EOF {
		return n, utils.WrapError("section read-at", err)
	}
	if clamped {
		return n, io.EOF
	}
	return n, nil
}

// Seek implements io.Seeker with whence values io.SeekStart, io.SeekCurrent
// and io.SeekEnd, matching the spec's set/cur/end semantics. Any offset
// landing outside [0, end-start] fails with ErrBadOffset and leaves the
// cursor unchanged.
func (s *Section) Seek(offset int64, whence int) (int64, error) {
	size := s.end - s.start

	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.pos + offset
	case io.SeekEnd:
		target = size + offset
	default:
		return s.pos, utils.WrapError("section seek", utils.ErrBadOffset)
	}

	if target < 0 || target > size {
		return s.pos, utils.WrapError("section seek", utils.ErrBadOffset)
	}
	s.pos = target
	return s.pos, nil
}

// Tell returns the current logical position, relative to the window start.
func (s *Section) Tell() int64 {
	return s.pos
}
