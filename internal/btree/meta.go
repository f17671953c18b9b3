package btree

import (
	"bytes"
	"encoding/binary"

	"github.com/scigolib/idbtree/internal/utils"
)

// MetaHeader is the fixed-layout page-zero header of a B-tree section:
// the variant signature plus the free-list head, page size, root page
// number, record count and page count.
type MetaHeader struct {
	Variant     Variant
	FirstFree   uint32
	PageSize    uint32
	RootPage    uint32
	RecordCount uint32
	PageCount   uint32
}

var (
	sigV15 = []byte("B-tree v 1.5 (C) Pol 1990")
	sigV16 = []byte("B-tree v 1.6 (C) Pol 1990")
	sigV20 = []byte("B-tree v2")
)

// ParseMetaHeader inspects the version-signature text embedded in page
// zero (at byte offset 13 for v1.5, byte offset 19 for v1.6/v2.0) and
// decodes the fields that follow according to the matched variant.
func ParseMetaHeader(data []byte) (*MetaHeader, error) {
	switch {
	case len(data) >= 13+len(sigV15) && bytes.HasPrefix(data[13:], sigV15):
		ff, ps, fi, rc, pc := unpackHeader15(data)
		return &MetaHeader{V15, ff, ps, fi, rc, pc}, nil

	case len(data) >= 19+len(sigV16) && bytes.HasPrefix(data[19:], sigV16):
		ff, ps, fi, rc, pc := unpackHeader16(data)
		return &MetaHeader{V16, ff, ps, fi, rc, pc}, nil

	case len(data) >= 19+len(sigV20) && bytes.HasPrefix(data[19:], sigV20):
		ff, ps, fi, rc, pc := unpackHeader16(data)
		return &MetaHeader{V20, ff, ps, fi, rc, pc}, nil

	default:
		return nil, utils.WrapError("parsing btree meta-header", utils.ErrBadMagic)
	}
}

// unpackHeader15 reads <HHHLH: firstfree, pagesize, firstindex u16,
// reccount u32, pagecount u16.
func unpackHeader15(data []byte) (firstfree, pagesize, firstindex, reccount, pagecount uint32) {
	firstfree = uint32(binary.LittleEndian.Uint16(data[0:2]))
	pagesize = uint32(binary.LittleEndian.Uint16(data[2:4]))
	firstindex = uint32(binary.LittleEndian.Uint16(data[4:6]))
	reccount = binary.LittleEndian.Uint32(data[6:10])
	pagecount = uint32(binary.LittleEndian.Uint16(data[10:12]))
	return
}

// unpackHeader16 reads <LHLLL: firstfree u32, pagesize u16, firstindex
// u32, reccount u32, pagecount u32. Shared by v1.6 and v2.0.
func unpackHeader16(data []byte) (firstfree, pagesize, firstindex, reccount, pagecount uint32) {
	firstfree = binary.LittleEndian.Uint32(data[0:4])
	pagesize = uint32(binary.LittleEndian.Uint16(data[4:6]))
	firstindex = binary.LittleEndian.Uint32(data[6:10])
	reccount = binary.LittleEndian.Uint32(data[10:14])
	pagecount = binary.LittleEndian.Uint32(data[14:18])
	return
}
