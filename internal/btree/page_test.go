package btree

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildLeafV20 constructs one v2.0-layout leaf page with the given
// (key, value) records, prefix-compressing each key against its
// predecessor the way the real format does.
func buildLeafV20(records [][2]string, pageSize int) []byte {
	buf := make([]byte, pageSize)
	count := len(records)

	binary.LittleEndian.PutUint32(buf[0:4], 0) // preceding = 0 (leaf)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(count))

	slotBase := 6
	recBase := slotBase + 6*(count+1) // leave room for trailing slot

	var prevKey string
	for i, rec := range records {
		key, val := rec[0], rec[1]

		indent := commonPrefixLen(prevKey, key)
		suffix := key[indent:]

		slot := slotBase + 6*i
		binary.LittleEndian.PutUint16(buf[slot:slot+2], uint16(indent))
		binary.LittleEndian.PutUint16(buf[slot+2:slot+4], 0) // unknown
		binary.LittleEndian.PutUint16(buf[slot+4:slot+6], uint16(recBase))

		binary.LittleEndian.PutUint16(buf[recBase:recBase+2], uint16(len(suffix)))
		recBase += 2
		copy(buf[recBase:], suffix)
		recBase += len(suffix)
		binary.LittleEndian.PutUint16(buf[recBase:recBase+2], uint16(len(val)))
		recBase += 2
		copy(buf[recBase:], val)
		recBase += len(val)

		prevKey = key
	}

	return buf
}

func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func TestDecodePage_V20Leaf_PrefixReconstruction(t *testing.T) {
	records := [][2]string{
		{"abc", "v1"},
		{"abd", "v2"},
		{"abde", "v3"},
	}
	data := buildLeafV20(records, 256)

	page, err := DecodePage(data, V20)
	require.NoError(t, err)
	require.True(t, page.IsLeaf())
	require.Equal(t, 3, page.Len())

	for i, rec := range records {
		require.Equal(t, rec[0], string(page.Key(i)))
		require.Equal(t, rec[1], string(page.Value(i)))
	}
}

func TestDecodePage_RejectsTruncatedBuffer(t *testing.T) {
	_, err := DecodePage([]byte{1, 2}, V20)
	require.Error(t, err)
}

func TestDecodePage_RejectsOverlargeCount(t *testing.T) {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], 0)
	binary.LittleEndian.PutUint16(buf[4:6], 1000) // impossible for a 16-byte page
	_, err := DecodePage(buf, V20)
	require.Error(t, err)
}

func TestFloorSearch(t *testing.T) {
	page := &Page{Entries: []Entry{
		{Key: []byte{2}}, {Key: []byte{3}}, {Key: []byte{5}}, {Key: []byte{6}},
	}}

	cases := []struct {
		key  byte
		want int
	}{
		{1, -1},
		{2, 0},
		{4, 1},
		{5, 2},
		{6, 3},
		{9, 3},
	}
	for _, c := range cases {
		got := floorSearch(page, []byte{c.key})
		require.Equal(t, c.want, got, "key=%d", c.key)
	}
}
