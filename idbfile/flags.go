// Package idbfile adapts the remaining container sections that sit
// alongside the primary B-tree: per-byte analysis flags (id1), the
// exported-name address table (nam), and thin stubs for the
// segmentation, type-library and packed-data sections that this
// library does not interpret further.
package idbfile

import (
	"encoding/binary"
	"io"

	"github.com/scigolib/idbtree/internal/utils"
)

const (
	magicVa0    = "Va0\x00"
	magicVa3    = "Va3\x00"
	magicVa4    = "Va4\x00"
	magicVAStar = "VA*\x00"
)

// segInfo is one entry of the id1 segment table: the linear address
// range [StartEA, EndEA) and the byte offset into the id1 stream where
// that range's per-address flag dwords begin.
type segInfo struct {
	StartEA uint64
	EndEA   uint64
	Offset  int64
}

// Flags reads the id1 section: a per-segment table of byte-analysis
// flag dwords, one per linear address. It supports both the pre-v6
// ('Va0'/'Va3'/'Va4') and v6 ('VA*') id1 layouts.
type Flags struct {
	r        io.ReadSeeker
	wordSize int
	segments []segInfo
}

// OpenFlags parses the id1 header and segment table from r. addressWidth
// is the container's address width (4 or 8), which governs the word
// size of the segment table's start/end/offset fields.
func OpenFlags(r io.ReadSeeker, addressWidth int) (*Flags, error) {
	hdr := make([]byte, 32)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, utils.WrapError("reading id1 header", err)
	}
	magic := string(hdr[0:4])

	var nsegments int
	var seglistofs int64
	var seginfosize int

	switch magic {
	case magicVa4, magicVa3, magicVa0:
		nsegments = int(binary.LittleEndian.Uint16(hdr[4:6]))
		seglistofs = 8
		seginfosize = 3
	case magicVAStar:
		nsegments = int(binary.LittleEndian.Uint32(hdr[8:12]))
		seglistofs = 20
		seginfosize = 2
	default:
		return nil, utils.WrapError("reading id1 header", utils.ErrBadMagic)
	}

	if _, err := r.Seek(seglistofs, io.SeekStart); err != nil {
		return nil, utils.WrapError("seeking id1 segment list", err)
	}

	segments := make([]segInfo, 0, nsegments)
	switch magic {
	case magicVa4, magicVa3, magicVa0:
		buf := make([]byte, nsegments*seginfosize*addressWidth)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, utils.WrapError("reading id1 segment list", err)
		}
		for i := 0; i < nsegments; i++ {
			off := i * seginfosize * addressWidth
			startea := readUint(buf[off:], addressWidth)
			endea := readUint(buf[off+addressWidth:], addressWidth)
			ofs := readUint(buf[off+2*addressWidth:], addressWidth)
			segments = append(segments, segInfo{startea, endea, int64(ofs)})
		}
	case magicVAStar:
		buf := make([]byte, nsegments*2*addressWidth)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, utils.WrapError("reading id1 segment list", err)
		}
		id1ofs := int64(0x2000)
		for i := 0; i < nsegments; i++ {
			off := i * 2 * addressWidth
			startea := readUint(buf[off:], addressWidth)
			endea := readUint(buf[off+addressWidth:], addressWidth)
			segments = append(segments, segInfo{startea, endea, id1ofs})
			id1ofs += 4 * int64(endea-startea)
		}
	}

	return &Flags{r: r, wordSize: addressWidth, segments: segments}, nil
}

func readUint(b []byte, width int) uint64 {
	if width == 8 {
		return binary.LittleEndian.Uint64(b)
	}
	return uint64(binary.LittleEndian.Uint32(b))
}

// FindSegment returns the segment containing linear address ea.
func (f *Flags) FindSegment(ea uint64) (startea, endea uint64, ok bool) {
	for _, seg := range f.segments {
		if seg.StartEA <= ea && ea < seg.EndEA {
			return seg.StartEA, seg.EndEA, true
		}
	}
	return 0, 0, false
}

// GetFlags returns the analysis flag dword stored for linear address ea.
func (f *Flags) GetFlags(ea uint64) (uint32, error) {
	for _, seg := range f.segments {
		if seg.StartEA <= ea && ea < seg.EndEA {
			off := seg.Offset + 4*int64(ea-seg.StartEA)
			if _, err := f.r.Seek(off, io.SeekStart); err != nil {
				return 0, utils.WrapError("seeking id1 flags", err)
			}
			buf := make([]byte, 4)
			if _, err := io.ReadFull(f.r, buf); err != nil {
				return 0, utils.WrapError("reading id1 flags", err)
			}
			return binary.LittleEndian.Uint32(buf), nil
		}
	}
	return 0, utils.WrapError("id1 flags lookup", utils.ErrNotFound)
}

// FirstSeg returns the start address of the first segment.
func (f *Flags) FirstSeg() (uint64, bool) {
	if len(f.segments) == 0 {
		return 0, false
	}
	return f.segments[0].StartEA, true
}

// NextSeg returns the start address of the segment following the one
// containing ea, if any.
func (f *Flags) NextSeg(ea uint64) (uint64, bool) {
	for i, seg := range f.segments {
		if seg.StartEA <= ea && ea < seg.EndEA {
			if i+1 < len(f.segments) {
				return f.segments[i+1].StartEA, true
			}
			return 0, false
		}
	}
	return 0, false
}

// SegStart returns the start address of the segment containing ea.
func (f *Flags) SegStart(ea uint64) (uint64, bool) {
	start, _, ok := f.FindSegment(ea)
	return start, ok
}

// SegEnd returns the end address of the segment containing ea.
func (f *Flags) SegEnd(ea uint64) (uint64, bool) {
	_, end, ok := f.FindSegment(ea)
	return end, ok
}
