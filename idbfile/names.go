package idbfile

import (
	"encoding/binary"
	"io"
	"iter"

	"github.com/scigolib/idbtree/internal/utils"
)

// Names reads the nam section: a page-indexed table of linear addresses
// that have an exported name.
type Names struct {
	r        io.ReadSeeker
	wordSize int
	nnames   uint64
	pageSize uint32
}

// OpenNames parses the nam header from r. addressWidth is the
// container's address width (4 or 8); isIDA2 selects the generation-2
// address-count convention (see below).
func OpenNames(r io.ReadSeeker, addressWidth int, isIDA2 bool) (*Names, error) {
	hdr := make([]byte, 64)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, utils.WrapError("reading nam header", err)
	}
	magic := string(hdr[0:4])

	var nnames uint64
	var pagesize uint32

	switch magic {
	case "Va4\x00", "Va1\x00", magicVa0:
		npages := binary.LittleEndian.Uint16(hdr[6:8])
		_ = npages
		nnames = readUint(hdr[8+addressWidth:], addressWidth)
		pagesize = binary.LittleEndian.Uint32(hdr[8+2*addressWidth:])
	case magicVAStar:
		npages := binary.LittleEndian.Uint32(hdr[16:20])
		_ = npages
		nnames = uint64(binary.LittleEndian.Uint32(hdr[20+addressWidth : 24+addressWidth]))
		pagesize = 0x2000
	default:
		return nil, utils.WrapError("reading nam header", utils.ErrBadMagic)
	}

	// IDA2 (64-bit) containers store nnames doubled relative to the
	// actual address count; the reference reader halves it with no
	// further explanation. Preserved rather than "corrected".
	if isIDA2 {
		nnames /= 2
	}

	return &Names{r: r, wordSize: addressWidth, nnames: nnames, pageSize: pagesize}, nil
}

// Count returns the number of named addresses.
func (n *Names) Count() uint64 { return n.nnames }

// AllNames lazily yields every named linear address, reading one
// pageSize-sized page at a time starting from page 1 (page 0 is the
// header just parsed by OpenNames).
func (n *Names) AllNames() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		if _, err := n.r.Seek(int64(n.pageSize), io.SeekStart); err != nil {
			return
		}

		buf := make([]byte, n.pageSize)
		var produced uint64
		for produced < n.nnames {
			read, err := io.ReadFull(n.r, buf)
			if read == 0 {
				return
			}

			perPage := uint64(read) / uint64(n.wordSize)
			want := n.nnames - produced
			if want > perPage {
				want = perPage
			}

			for i := uint64(0); i < want; i++ {
				off := i * uint64(n.wordSize)
				v := readUint(buf[off:], n.wordSize)
				if !yield(v) {
					return
				}
			}

			produced += want
			if err != nil {
				return
			}
		}
	}
}
