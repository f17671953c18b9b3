package btree

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type memReaderAt []byte

func (m memReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m)) {
		return 0, io.EOF
	}
	n := copy(p, m[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// buildSingleLeafTree builds a minimal bundle: page 0 is the meta
// header (v2.0 signature, root = page 1), page 1 is a leaf holding the
// given sorted records.
func buildSingleLeafTree(records [][2]string, pageSize int) memReaderAt {
	meta := make([]byte, pageSize)
	copy(meta[19:], "B-tree v2")
	binary.LittleEndian.PutUint32(meta[0:4], 0)   // firstfree
	binary.LittleEndian.PutUint16(meta[4:6], uint16(pageSize))
	binary.LittleEndian.PutUint32(meta[6:10], 1) // firstindex (root page)
	binary.LittleEndian.PutUint32(meta[10:14], uint32(len(records)))
	binary.LittleEndian.PutUint32(meta[14:18], 2) // pagecount

	leaf := buildLeafV20(records, pageSize)

	buf := make(memReaderAt, 2*pageSize)
	copy(buf[0:pageSize], meta)
	copy(buf[pageSize:2*pageSize], leaf)
	return buf
}

func TestNavigator_ReadRootAndFindEq(t *testing.T) {
	records := [][2]string{
		{"aaa", "1"}, {"aab", "2"}, {"abc", "3"}, {"abd", "4"},
	}
	bundle := buildSingleLeafTree(records, 256)

	nav, err := NewNavigator(bundle, nil)
	require.NoError(t, err)
	require.Equal(t, V20, nav.Meta().Variant)
	require.Equal(t, uint32(1), nav.RootPage())

	for _, rec := range records {
		cur, err := nav.Find(RelEq, []byte(rec[0]))
		require.NoError(t, err)
		require.NotNil(t, cur)
		require.Equal(t, rec[1], string(cur.Value()))
	}

	cur, err := nav.Find(RelEq, []byte("zzz"))
	require.NoError(t, err)
	require.Nil(t, cur)
}

func TestNavigator_FindRelational(t *testing.T) {
	records := [][2]string{
		{"b", "1"}, {"d", "2"}, {"f", "3"},
	}
	bundle := buildSingleLeafTree(records, 256)

	nav, err := NewNavigator(bundle, nil)
	require.NoError(t, err)

	cur, err := nav.Find(RelGe, []byte("c"))
	require.NoError(t, err)
	require.NotNil(t, cur)
	require.False(t, cur.Eof())
	require.Equal(t, "d", string(cur.Key()))

	cur, err = nav.Find(RelLe, []byte("c"))
	require.NoError(t, err)
	require.NotNil(t, cur)
	require.Equal(t, "b", string(cur.Key()))

	cur, err = nav.Find(RelGt, []byte("d"))
	require.NoError(t, err)
	require.Equal(t, "f", string(cur.Key()))

	cur, err = nav.Find(RelLt, []byte("d"))
	require.NoError(t, err)
	require.Equal(t, "b", string(cur.Key()))

	// Past the last key: relational lookups land at EOF, not an error.
	cur, err = nav.Find(RelGt, []byte("z"))
	require.NoError(t, err)
	require.True(t, cur.Eof())
}

func TestCursor_NextPrevWalksAllRecords(t *testing.T) {
	records := [][2]string{
		{"a", "1"}, {"b", "2"}, {"c", "3"}, {"d", "4"},
	}
	bundle := buildSingleLeafTree(records, 256)

	nav, err := NewNavigator(bundle, nil)
	require.NoError(t, err)

	cur, err := nav.Find(RelGe, []byte("a"))
	require.NoError(t, err)
	require.False(t, cur.Eof())

	var got []string
	for !cur.Eof() {
		got = append(got, string(cur.Key()))
		require.NoError(t, cur.Next())
	}
	require.Equal(t, []string{"a", "b", "c", "d"}, got)

	cur, err = nav.Find(RelLe, []byte("d"))
	require.NoError(t, err)

	var back []string
	for !cur.Eof() {
		back = append(back, string(cur.Key()))
		require.NoError(t, cur.Prev())
	}
	require.Equal(t, []string{"d", "c", "b", "a"}, back)
}
