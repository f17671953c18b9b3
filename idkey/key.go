// Package idkey implements the typed key/value overlay (C7) on top of
// the primary B-tree: the composite key schema IDA uses to multiplex
// node metadata, names and blob payloads into one flat key space, and
// typed accessors that decode the raw byte values stored under it.
package idkey

import "encoding/binary"

// Sentinel is the leading byte of every composite key built via
// CompositeKey, distinguishing it from the bespoke name-lookup keys
// NameKey builds.
const Sentinel = 0x2E

// Name encodes a node or attribute name as the UTF-8 bytes used in a
// composite or name key.
func Name(s string) []byte { return []byte(s) }

// NodeID big-endian encodes a raw node id to width bytes (4 or 8,
// matching the container's address width) for use as the name_or_id
// field of a CompositeKey.
func NodeID(id uint64, width int) []byte {
	buf := make([]byte, width)
	switch width {
	case 4:
		binary.BigEndian.PutUint32(buf, uint32(id))
	default:
		binary.BigEndian.PutUint64(buf, id)
	}
	return buf
}

// CompositeKey builds a key of the form
//
//	0x2E || tag || name_or_id || subkey (big-endian, width bytes)
//
// used by the generic bytes/int/string/blob accessors.
func CompositeKey(tag byte, nameOrID []byte, subkey uint64, width int) []byte {
	key := make([]byte, 0, 2+len(nameOrID)+width)
	key = append(key, Sentinel, tag)
	key = append(key, nameOrID...)
	sub := make([]byte, width)
	switch width {
	case 4:
		binary.BigEndian.PutUint32(sub, uint32(subkey))
	default:
		binary.BigEndian.PutUint64(sub, subkey)
	}
	return append(key, sub...)
}

// NameKey builds the bespoke name-to-node-id lookup key: tag || name,
// with no sentinel byte and no subkey. Grounded on the original
// nodeByName lookup, which bypasses the generic composite-key builder
// entirely.
func NameKey(name string) []byte {
	key := make([]byte, 0, 1+len(name))
	key = append(key, 'N')
	return append(key, name...)
}

// NextKey returns the exclusive upper bound of the keys that start with
// key, under the byte-wise ordering Blob() scans against, by
// incrementing only the final byte.
//
// This does not propagate a carry into preceding bytes: if key's last
// byte is 0xFF, the result wraps to 0x00 and is no longer greater than
// key, so a Blob() range scan bounded by it terminates immediately
// instead of reading anything. This mirrors the reference
// implementation's nextkey routine rather than "fixing" it.
func NextKey(key []byte) []byte {
	out := make([]byte, len(key))
	copy(out, key)
	if len(out) > 0 {
		out[len(out)-1]++
	}
	return out
}
