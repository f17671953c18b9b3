package container

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// parentBuf adapts a byte slice to io.ReaderAt, standing in for the
// bundle file (or sibling file) a Section windows over.
type parentBuf []byte

func (p parentBuf) ReadAt(b []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(p)) {
		return 0, io.EOF
	}
	n := copy(b, p[off:])
	if n < len(b) {
		return n, io.EOF
	}
	return n, nil
}

func TestSection_ReadClampedToWindow(t *testing.T) {
	parent := parentBuf("0123456789abcdef")
	// Window covers bytes [3, 11): "3456789a"
	s := NewSection(parent, 3, 11)

	buf := make([]byte, 3)
	n, err := s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, "345", string(buf[:n]))

	// Request more than remains in the window: clamp, no error.
	buf = make([]byte, 8)
	n, err = s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "6789a", string(buf[:n]))

	// Nothing left: io.EOF.
	n, err = s.Read(buf)
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, io.EOF)
}

func TestSection_SeekWhence(t *testing.T) {
	parent := parentBuf("0123456789abcdef")
	s := NewSection(parent, 3, 11) // "3456789a", len 8

	pos, err := s.Seek(2, io.SeekStart)
	require.NoError(t, err)
	require.Equal(t, int64(2), pos)
	require.Equal(t, int64(2), s.Tell())

	pos, err = s.Seek(1, io.SeekCurrent)
	require.NoError(t, err)
	require.Equal(t, int64(3), pos)

	pos, err = s.Seek(-1, io.SeekEnd)
	require.NoError(t, err)
	require.Equal(t, int64(7), pos)

	buf := make([]byte, 1)
	n, err := s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "a", string(buf))
}

func TestSection_SeekOutOfBounds(t *testing.T) {
	parent := parentBuf("0123456789abcdef")
	s := NewSection(parent, 3, 11)

	_, err := s.Seek(-1, io.SeekStart)
	require.Error(t, err)

	_, err = s.Seek(100, io.SeekStart)
	require.Error(t, err)

	// Cursor unchanged after a rejected seek.
	require.Equal(t, int64(0), s.Tell())
}

func TestSection_ReadAtIndependentOfCursor(t *testing.T) {
	parent := parentBuf("0123456789abcdef")
	s := NewSection(parent, 3, 11)

	_, err := s.Seek(5, io.SeekStart)
	require.NoError(t, err)

	buf := make([]byte, 2)
	n, err := s.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.True(t, bytes.Equal(buf, []byte("34")))

	// ReadAt must not disturb the Read/Seek cursor.
	require.Equal(t, int64(5), s.Tell())
}

func TestSection_Len(t *testing.T) {
	s := NewSection(parentBuf("0123456789"), 2, 9)
	require.Equal(t, int64(7), s.Len())
}
