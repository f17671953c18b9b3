package idbtree

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/idbtree/idkey"
)

// buildLeafV20 lays out a minimal v2.0-format leaf page for exactly one
// record, skipping prefix compression (indent always 0) since these
// tests only need one key.
func buildLeafV20(key, val []byte, pageSize int) []byte {
	buf := make([]byte, pageSize)
	binary.LittleEndian.PutUint32(buf[0:4], 0) // preceding = 0 (leaf)
	binary.LittleEndian.PutUint16(buf[4:6], 1) // count = 1

	slot := 6
	recBase := slot + 6*2 // one entry slot + one trailing slot

	binary.LittleEndian.PutUint16(buf[slot:slot+2], 0) // indent
	binary.LittleEndian.PutUint16(buf[slot+2:slot+4], 0)
	binary.LittleEndian.PutUint16(buf[slot+4:slot+6], uint16(recBase))

	binary.LittleEndian.PutUint16(buf[recBase:recBase+2], uint16(len(key)))
	recBase += 2
	copy(buf[recBase:], key)
	recBase += len(key)
	binary.LittleEndian.PutUint16(buf[recBase:recBase+2], uint16(len(val)))
	recBase += 2
	copy(buf[recBase:], val)

	return buf
}

func buildBundle(t *testing.T, key, val []byte, pageSize int) []byte {
	t.Helper()

	meta := make([]byte, pageSize)
	copy(meta[19:], "B-tree v2")
	binary.LittleEndian.PutUint16(meta[4:6], uint16(pageSize))
	binary.LittleEndian.PutUint32(meta[6:10], 1) // firstindex/root page
	binary.LittleEndian.PutUint32(meta[10:14], 1) // reccount
	binary.LittleEndian.PutUint32(meta[14:18], 2) // pagecount

	leaf := buildLeafV20(key, val, pageSize)
	id0 := append(meta, leaf...)

	header := make([]byte, 256)
	copy(header[0:4], "IDA1")
	binary.LittleEndian.PutUint32(header[6:], 256) // id0 offset, unversioned layout

	prefix := make([]byte, 5)
	prefix[0] = 0 // raw encoding
	binary.LittleEndian.PutUint32(prefix[1:], uint32(len(id0)))

	bundle := append(header, prefix...)
	bundle = append(bundle, id0...)
	return bundle
}

func writeTempBundle(t *testing.T, data []byte) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.idb")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestOpenFile_NodeByNameRoundTrip(t *testing.T) {
	val := make([]byte, 8)
	binary.LittleEndian.PutUint64(val, 42)
	bundle := buildBundle(t, idkey.NameKey("entry"), val, 256)

	f := writeTempBundle(t, bundle)
	db, err := OpenFile(f)
	require.NoError(t, err)
	defer db.Close()

	require.Equal(t, 4, db.AddressWidth())
	require.Equal(t, uint16(0), db.ContainerVersion())

	id, err := db.Reader().NodeByName("entry")
	require.NoError(t, err)
	require.Equal(t, uint64(42), id)
}

func TestOpenFile_WithPageCache(t *testing.T) {
	val := []byte{1, 2, 3, 4}
	bundle := buildBundle(t, idkey.NameKey("x"), val, 256)

	f := writeTempBundle(t, bundle)
	db, err := OpenFile(f, WithPageCache(8))
	require.NoError(t, err)
	defer db.Close()

	require.NotNil(t, db.cache)

	_, err = db.Reader().NodeByName("x")
	require.NoError(t, err)
}

func TestOpen_DispatchesOnFileVsDir(t *testing.T) {
	val := []byte{9}
	bundle := buildBundle(t, idkey.NameKey("y"), val, 256)

	path := filepath.Join(t.TempDir(), "sample.idb")
	require.NoError(t, os.WriteFile(path, bundle, 0o644))

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	require.Equal(t, 4, db.AddressWidth())
}

func TestOpenDir_MissingID0(t *testing.T) {
	dir := t.TempDir()
	_, err := OpenDir(dir, 4)
	require.Error(t, err)
}
