package idkey

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/scigolib/idbtree/internal/btree"
	"github.com/scigolib/idbtree/internal/utils"
)

// Overlay is the typed view over a primary B-tree's composite key
// space: node lookups by name, and typed bytes/int/string/blob
// accessors keyed by (tag, name_or_id, subkey).
type Overlay struct {
	nav   *btree.Navigator
	width int // address width in bytes: 4 or 8
}

// NewOverlay wraps nav, decoding subkeys and node ids as width-byte
// (4 or 8) values to match the container's address width.
func NewOverlay(nav *btree.Navigator, width int) *Overlay {
	return &Overlay{nav: nav, width: width}
}

// Bytes returns the raw value stored at the composite key
// (tag, nameOrID, subkey).
func (o *Overlay) Bytes(tag byte, nameOrID []byte, subkey uint64) ([]byte, error) {
	key := CompositeKey(tag, nameOrID, subkey, o.width)
	cur, err := o.nav.Find(btree.RelEq, key)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, utils.WrapError("idkey bytes", utils.ErrNotFound)
	}
	return cur.Value(), nil
}

// Int decodes the value at (tag, nameOrID, subkey) as a little-endian
// unsigned integer of whatever width (1, 2, 4 or 8 bytes) was stored.
func (o *Overlay) Int(tag byte, nameOrID []byte, subkey uint64) (uint64, error) {
	data, err := o.Bytes(tag, nameOrID, subkey)
	if err != nil {
		return 0, err
	}
	return decodeUint(data)
}

// String decodes the value at (tag, nameOrID, subkey) as a UTF-8
// string with any trailing NUL bytes removed.
func (o *Overlay) String(tag byte, nameOrID []byte, subkey uint64) (string, error) {
	data, err := o.Bytes(tag, nameOrID, subkey)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(data, "\x00")), nil
}

// NodeByName resolves name to its node id via the bespoke 'N' name key.
func (o *Overlay) NodeByName(name string) (uint64, error) {
	cur, err := o.nav.Find(btree.RelEq, NameKey(name))
	if err != nil {
		return 0, err
	}
	if cur == nil {
		return 0, utils.WrapError("node by name", utils.ErrNotFound)
	}
	return decodeUint(cur.Value())
}

// Blob concatenates every value whose key falls in
// [CompositeKey(tag,nameOrID,subkey), NextKey(0x2E||tag||nameOrID)),
// reassembling a payload IDA split across consecutive subkeys.
func (o *Overlay) Blob(tag byte, nameOrID []byte, subkey uint64) ([]byte, error) {
	start := CompositeKey(tag, nameOrID, subkey, o.width)
	end := NextKey(start[:len(start)-o.width])

	cur, err := o.nav.Find(btree.RelGe, start)
	if err != nil {
		return nil, err
	}

	var out []byte
	for cur != nil && !cur.Eof() && bytes.Compare(cur.Key(), end) < 0 {
		// ValidateBufferSize rejects size == 0, which is wrong here: this
		// bounds the running total against MaxBlobSize, not a single
		// allocation, and a legitimate zero-length record must not abort
		// the scan.
		if total := uint64(len(out) + len(cur.Value())); total > utils.MaxBlobSize {
			return nil, utils.WrapError("idkey blob", fmt.Errorf("blob: size %d exceeds maximum %d", total, utils.MaxBlobSize))
		}
		out = append(out, cur.Value()...)
		if err := cur.Next(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeUint(data []byte) (uint64, error) {
	switch len(data) {
	case 1:
		return uint64(data[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(data)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(data)), nil
	case 8:
		return binary.LittleEndian.Uint64(data), nil
	default:
		return 0, utils.WrapError("idkey int", utils.ErrBadInt)
	}
}
