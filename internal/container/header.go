package container

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/scigolib/idbtree/internal/utils"
)

// Section indices into Header's six descriptors, in container order.
const (
	SectionID0 = iota // primary B-tree (nodes, names, addresses)
	SectionID1        // segment/byte-flags
	SectionNAM        // exported-name address table
	SectionSEG        // segmentation metadata
	SectionTIL        // type library
	SectionID2        // packed data (versioned containers only)

	sectionCount
)

// Sentinel marking a versioned (file_version-carrying) header, found at
// byte offset 26; without it the header is the unversioned layout.
const headerSentinel = 0xAABBCCDD

// Header is the decoded container header (C2): the magic, the address
// width it implies, the container generation, and the byte offset/
// checksum of each of the six logical sections.
type Header struct {
	Magic       [4]byte
	AddressWidth int
	FileVersion  uint16

	offsets   [sectionCount]uint64
	checksums [sectionCount]uint64
}

// ReadHeader parses the fixed-size header occupying the first bytes of a
// bundle file. r must expose at least 256 bytes from offset 0.
func ReadHeader(r io.ReaderAt) (*Header, error) {
	buf := make([]byte, 256)
	if _, err := io.ReadFull(&readerAtOffset{r, 0}, buf); err != nil && err != io.ErrUnexpectedEOF {
		return nil, utils.WrapError("reading container header", err)
	}

	h := &Header{}
	copy(h.Magic[:], buf[0:4])

	switch string(h.Magic[:]) {
	case "IDA0", "IDA1":
		h.AddressWidth = 4
	case "IDA2":
		h.AddressWidth = 8
	default:
		return nil, utils.WrapError("reading container header", utils.ErrBadMagic)
	}

	// First group: six little-endian u32 fields (bytes 6,10,14,18,22,26;
	// the first five are offsets, the sixth is the sentinel), then a u16
	// file_version (byte 30). v's 4-byte stride only covers this first
	// group; the five checksums that follow start at byte 36, not the
	// byte 38 that stride would give, because the intervening
	// file_version field is 2 bytes wide.
	v := func(i int) uint32 { return binary.LittleEndian.Uint32(buf[6+4*i:]) }

	if v(5) != headerSentinel {
		// No sentinel: oldest, unversioned container layout.
		h.FileVersion = 0
		for i := 0; i < 5; i++ {
			h.offsets[i] = uint64(v(i))
		}
		return h, nil
	}

	h.FileVersion = binary.LittleEndian.Uint16(buf[30:32])

	if h.FileVersion < 5 {
		for i := 0; i < 5; i++ {
			h.offsets[i] = uint64(v(i))
		}
		for i := 0; i < 5; i++ {
			h.checksums[i] = uint64(binary.LittleEndian.Uint32(buf[36+4*i:]))
		}
		// id2 offset/checksum trail the rest of the header; the checksum
		// field is 16 bits for file_version == 1, 32 bits otherwise.
		h.offsets[SectionID2] = uint64(binary.LittleEndian.Uint32(buf[56:60]))
		if h.FileVersion == 1 {
			h.checksums[SectionID2] = uint64(binary.LittleEndian.Uint16(buf[60:62]))
		} else {
			h.checksums[SectionID2] = uint64(binary.LittleEndian.Uint32(buf[60:64]))
		}
		return h, nil
	}

	// file_version >= 5: mixed 64-/32-bit layout.
	br := bytes.NewReader(buf)
	q := func(off int) uint64 {
		val, _ := utils.ReadUint64(br, int64(off), binary.LittleEndian)
		return val
	}
	l := func(off int) uint64 { return uint64(binary.LittleEndian.Uint32(buf[off:])) }

	h.offsets[0] = q(6)
	h.offsets[1] = q(14)
	h.offsets[2] = q(32)
	h.offsets[3] = q(40)
	h.offsets[4] = q(48)
	h.offsets[5] = l(80)

	h.checksums[0] = q(56)
	h.checksums[1] = l(64)
	h.checksums[2] = l(68)
	h.checksums[3] = l(72)
	h.checksums[4] = l(76)
	h.checksums[5] = q(84)

	return h, nil
}

// SectionOffset returns the bundle-absolute byte offset of section i, or
// 0 if the section is absent from this container.
func (h *Header) SectionOffset(i int) uint64 {
	return h.offsets[i]
}

// Checksum returns the recorded checksum of section i.
func (h *Header) Checksum(i int) uint64 {
	return h.checksums[i]
}

// OpenSection reads the (encoding, length) prefix at section i's offset
// and returns a Section windowing the section's payload, along with the
// raw encoding byte (0 = raw, 2 = compressed, anything else
// unsupported). A nil Section with a nil error means the section is
// absent from this container.
func (h *Header) OpenSection(r io.ReaderAt, i int) (*Section, uint8, error) {
	off := h.offsets[i]
	if off == 0 {
		return nil, 0, nil
	}

	widthN := 4
	if h.FileVersion >= 5 {
		widthN = 8
	}
	prefix := make([]byte, 1+widthN)
	if _, err := r.ReadAt(prefix, int64(off)); err != nil {
		return nil, 0, utils.WrapError("reading section prefix", err)
	}

	encoding := prefix[0]
	var length uint64
	if widthN == 4 {
		length = uint64(binary.LittleEndian.Uint32(prefix[1:5]))
	} else {
		length = binary.LittleEndian.Uint64(prefix[1:9])
	}

	start := int64(off) + int64(1+widthN)
	switch encoding {
	case 0, 2:
		return NewSection(r, start, start+int64(length)), encoding, nil
	default:
		return nil, encoding, utils.WrapError("reading section prefix", utils.ErrUnsupportedEncoding)
	}
}

// Inflate decompresses a section whose encoding byte was 2. IDA's
// container compression is not documented in the distilled specification
// this library targets; callers that encounter a compressed section
// receive ErrNotImplemented rather than silently misreading it as raw.
func Inflate(_ io.Reader) ([]byte, error) {
	return nil, utils.WrapError("inflating section", utils.ErrNotImplemented)
}

// readerAtOffset adapts an io.ReaderAt fixed at offset 0 into an
// io.Reader for use with io.ReadFull.
type readerAtOffset struct {
	r   io.ReaderAt
	pos int64
}

func (r *readerAtOffset) Read(p []byte) (int, error) {
	n, err := r.r.ReadAt(p, r.pos)
	r.pos += int64(n)
	return n, err
}
