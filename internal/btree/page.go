// Package btree decodes IDA's on-disk B-tree pages and walks them:
// page layout decoding (three historical variants), iterative descent,
// an explicit-stack cursor, and relational find (eq/lt/le/gt/ge).
package btree

import (
	"encoding/binary"

	"github.com/scigolib/idbtree/internal/utils"
)

// Variant identifies one of the three page-layout generations IDA has
// shipped. The meta-header's version signature selects which one a given
// container uses (a missing signature is an error); every page within a
// container shares the same variant.
type Variant int

const (
	V15 Variant = iota // "B-tree v 1.5 (C) Pol 1990"
	V16                 // "B-tree v 1.6 (C) Pol 1990"
	V20                 // "B-tree v2"
)

// entrySlotWidth returns the fixed byte width of one entry slot (and of
// the page header/trailer, which share that width) for the given variant.
func entrySlotWidth(v Variant) int {
	if v == V15 {
		return 4
	}
	return 6
}

// Entry is one decoded slot of a page. For an index page, Child and Key
// are populated and Value holds the separator's associated value (if
// present); for a leaf page, Key is the fully reconstructed key (prefix
// compression already applied) and Value is the stored record value.
type Entry struct {
	Child uint32
	Key   []byte
	Value []byte
}

// Page is one decoded B-tree page: a leaf if Preceding == 0, otherwise
// an index page whose "preceding" pointer is the child for positions
// before Entries[0].
type Page struct {
	Variant   Variant
	Preceding uint32
	Entries   []Entry
}

// IsLeaf reports whether this page has no preceding-child pointer.
func (p *Page) IsLeaf() bool { return p.Preceding == 0 }

// IsIndex reports whether this page has a preceding-child pointer.
func (p *Page) IsIndex() bool { return p.Preceding != 0 }

// Len returns the number of entries on the page.
func (p *Page) Len() int { return len(p.Entries) }

// Key returns the key at entry i.
func (p *Page) Key(i int) []byte { return p.Entries[i].Key }

// Value returns the value at entry i.
func (p *Page) Value(i int) []byte { return p.Entries[i].Value }

// Child returns the child page number reached when descending at
// position i; i == -1 denotes the page's preceding pointer.
func (p *Page) Child(i int) uint32 {
	if i < 0 {
		return p.Preceding
	}
	return p.Entries[i].Child
}

// DecodePage parses one raw page buffer according to variant.
func DecodePage(data []byte, variant Variant) (*Page, error) {
	entsize := entrySlotWidth(variant)
	if len(data) < entsize {
		return nil, utils.WrapError("decoding page", utils.ErrBadPage)
	}

	var preceding uint32
	var count uint16
	if variant == V15 {
		preceding = uint32(binary.LittleEndian.Uint16(data[0:2]))
		count = binary.LittleEndian.Uint16(data[2:4])
	} else {
		preceding = binary.LittleEndian.Uint32(data[0:4])
		count = binary.LittleEndian.Uint16(data[4:6])
	}

	// Every entry occupies one slot plus a trailing (unknown, freeptr)
	// slot of the same width; reject counts that can't possibly fit.
	needed := entsize * (2 + int(count))
	if needed > len(data) {
		return nil, utils.WrapError("decoding page", utils.ErrBadPage)
	}

	isIndex := preceding != 0
	entries := make([]Entry, count)
	var prevKey []byte

	for i := 0; i < int(count); i++ {
		slot := entsize * (1 + i)

		if isIndex {
			child, recofs, err := parseIndexSlot(data, slot, variant)
			if err != nil {
				return nil, err
			}
			key, val, err := readRecord(data, recofs)
			if err != nil {
				return nil, err
			}
			entries[i] = Entry{Child: child, Key: key, Value: val}
		} else {
			indent, recofs, err := parseLeafSlot(data, slot, variant)
			if err != nil {
				return nil, err
			}
			suffix, val, err := readRecord(data, recofs)
			if err != nil {
				return nil, err
			}
			if indent > len(prevKey) {
				return nil, utils.WrapError("decoding page", utils.ErrBadPage)
			}
			key := make([]byte, 0, indent+len(suffix))
			key = append(key, prevKey[:indent]...)
			key = append(key, suffix...)
			entries[i] = Entry{Key: key, Value: val}
			prevKey = key
		}
	}

	return &Page{Variant: variant, Preceding: preceding, Entries: entries}, nil
}

// parseIndexSlot decodes one index-page slot, returning the child page
// number and the offset of the (keylen,key,vallen,val) record body.
func parseIndexSlot(data []byte, ofs int, v Variant) (child uint32, recofs int, err error) {
	switch v {
	case V15:
		if ofs+4 > len(data) {
			return 0, 0, utils.WrapError("decoding index slot", utils.ErrBadPage)
		}
		child = uint32(binary.LittleEndian.Uint16(data[ofs : ofs+2]))
		recofs = int(binary.LittleEndian.Uint16(data[ofs+2:ofs+4])) + 1
	case V16:
		if ofs+6 > len(data) {
			return 0, 0, utils.WrapError("decoding index slot", utils.ErrBadPage)
		}
		child = binary.LittleEndian.Uint32(data[ofs : ofs+4])
		recofs = int(binary.LittleEndian.Uint16(data[ofs+4:ofs+6])) + 1
	default: // V20
		if ofs+6 > len(data) {
			return 0, 0, utils.WrapError("decoding index slot", utils.ErrBadPage)
		}
		child = binary.LittleEndian.Uint32(data[ofs : ofs+4])
		recofs = int(binary.LittleEndian.Uint16(data[ofs+4 : ofs+6]))
	}
	return child, recofs, nil
}

// parseLeafSlot decodes one leaf-page slot, returning the prefix-share
// indent and the offset of the record body.
func parseLeafSlot(data []byte, ofs int, v Variant) (indent int, recofs int, err error) {
	switch v {
	case V15:
		if ofs+4 > len(data) {
			return 0, 0, utils.WrapError("decoding leaf slot", utils.ErrBadPage)
		}
		indent = int(data[ofs])
		recofs = int(binary.LittleEndian.Uint16(data[ofs+2:ofs+4])) + 1
	case V16:
		if ofs+6 > len(data) {
			return 0, 0, utils.WrapError("decoding leaf slot", utils.ErrBadPage)
		}
		indent = int(data[ofs])
		recofs = int(binary.LittleEndian.Uint16(data[ofs+4:ofs+6])) + 1
	default: // V20
		if ofs+6 > len(data) {
			return 0, 0, utils.WrapError("decoding leaf slot", utils.ErrBadPage)
		}
		indent = int(binary.LittleEndian.Uint16(data[ofs : ofs+2]))
		recofs = int(binary.LittleEndian.Uint16(data[ofs+4 : ofs+6]))
	}
	return indent, recofs, nil
}

// readRecord decodes the (keylen:u16, key, vallen:u16, val) body common
// to every slot format, starting at ofs.
func readRecord(data []byte, ofs int) (key, val []byte, err error) {
	if ofs < 0 || ofs+2 > len(data) {
		return nil, nil, utils.WrapError("decoding record", utils.ErrBadPage)
	}
	keylen := int(binary.LittleEndian.Uint16(data[ofs : ofs+2]))
	ofs += 2
	if ofs+keylen > len(data) {
		return nil, nil, utils.WrapError("decoding record", utils.ErrShortRead)
	}
	key = data[ofs : ofs+keylen]
	ofs += keylen

	if ofs+2 > len(data) {
		return nil, nil, utils.WrapError("decoding record", utils.ErrBadPage)
	}
	vallen := int(binary.LittleEndian.Uint16(data[ofs : ofs+2]))
	ofs += 2
	if ofs+vallen > len(data) {
		return nil, nil, utils.WrapError("decoding record", utils.ErrShortRead)
	}
	val = data[ofs : ofs+vallen]

	return key, val, nil
}
