package idbfile

import (
	"bytes"
	"io"

	"github.com/scigolib/idbtree/internal/utils"
)

// Segments, Types and Packed correspond to the seg, til and id2
// sections. Their on-disk layouts are undocumented in the distilled
// specification this library targets; the Types and Packed readers
// validate that the section at least carries the magic a real database
// would, and each reader exposes the raw remaining bytes for a caller that understands the
// format to interpret further.

// Segments reads the seg section.
type Segments struct {
	Raw []byte
}

// OpenSegments reads the whole seg section into memory without
// interpreting it; no stable magic is documented for this section.
func OpenSegments(r io.Reader) (*Segments, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, utils.WrapError("reading seg section", err)
	}
	return &Segments{Raw: raw}, nil
}

// tilMagic is the fixed 6-byte signature of a til (type library)
// section.
var tilMagic = []byte("IDATIL")

// Types reads the til section.
type Types struct {
	Raw []byte
}

// OpenTypes validates the til magic and returns the remaining bytes
// uninterpreted.
func OpenTypes(r io.Reader) (*Types, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, utils.WrapError("reading til section", err)
	}
	if !bytes.HasPrefix(raw, tilMagic) {
		return nil, utils.WrapError("reading til section", utils.ErrBadMagic)
	}
	return &Types{Raw: raw[len(tilMagic):]}, nil
}

// id2Magic is the fixed 8-byte signature of an id2 (packed data)
// section.
var id2Magic = []byte{'I', 'D', 'A', 'S', 0x1d, 0xa5, 0x55, 0x55}

// Packed reads the id2 section, which holds struct/enum/other packed
// metadata; only versioned containers record an id2 offset.
type Packed struct {
	Raw []byte
}

// OpenPacked validates the id2 magic and returns the remaining bytes
// uninterpreted.
func OpenPacked(r io.Reader) (*Packed, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, utils.WrapError("reading id2 section", err)
	}
	if !bytes.HasPrefix(raw, id2Magic) {
		return nil, utils.WrapError("reading id2 section", utils.ErrBadMagic)
	}
	return &Packed{Raw: raw[len(id2Magic):]}, nil
}
