// Package elfload implements the two image-side stages of the hand-off
// pipeline: parsing an ELF64 executable out of a raw memory buffer and
// copying its loadable segments to their physical load addresses.
//
// The parser is deliberately minimal. The kernel image is a statically
// linked executable, so there is no relocation, no dynamic symbol handling
// and no section processing here; only the header fields and the program
// header table participate.
package elfload

import (
	"encoding/binary"

	"github.com/smallkirby/zakuro-os/loader"
)

// ELF64 layout constants. The parser reads the file byte buffer directly
// because in the firmware environment the image is just a physical buffer
// with no reader abstraction around it.
const (
	headerBytes     = 64
	progHeaderBytes = 56

	offEntry     = 24
	offPhoff     = 32
	offPhentsize = 54
	offPhnum     = 56

	classELF64       = 2
	dataLittleEndian = 1

	ptLoad = 1
)

var (
	errImageTooShort   = &loader.Error{Module: "elfload", Message: "buffer is shorter than an ELF64 header"}
	errBadMagic        = &loader.Error{Module: "elfload", Message: "bad ELF magic"}
	errNotELF64        = &loader.Error{Module: "elfload", Message: "image is not a 64-bit ELF"}
	errBadByteOrder    = &loader.Error{Module: "elfload", Message: "image is not little-endian"}
	errBadPhentsize    = &loader.Error{Module: "elfload", Message: "unexpected program header entry size"}
	errTruncatedPhdrs  = &loader.Error{Module: "elfload", Message: "program header table exceeds the buffer"}
	errSegmentBounds   = &loader.Error{Module: "elfload", Message: "segment file range exceeds the buffer"}
	errSegmentOversize = &loader.Error{Module: "elfload", Message: "segment file size exceeds its memory size"}
	errNoLoadSegments  = &loader.Error{Module: "elfload", Message: "image has no loadable segments"}
)

var elfMagic = [4]byte{0x7f, 'E', 'L', 'F'}

// ProgHeader is one entry of the ELF64 program header table.
type ProgHeader struct {
	Type   uint32
	Flags  uint32
	Off    uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

// Image is a parsed ELF64 executable backed by the complete file buffer.
// The buffer must stay alive until CopySegments has run; afterwards it can
// be released, the segments are resident at their load addresses.
type Image struct {
	// Entry is the raw entry-point address stored in the header.
	Entry uint64

	progs []ProgHeader
	buf   []byte
}

// ParseImage parses the ELF64 executable held in buf. buf must contain the
// complete file: a partial buffer would produce undefined segment copies, so
// every file-backed range is bounds-checked against it here.
func ParseImage(buf []byte) (*Image, *loader.Error) {
	if len(buf) < headerBytes {
		return nil, errImageTooShort
	}
	if [4]byte(buf[0:4]) != elfMagic {
		return nil, errBadMagic
	}
	if buf[4] != classELF64 {
		return nil, errNotELF64
	}
	if buf[5] != dataLittleEndian {
		return nil, errBadByteOrder
	}

	phentsize := binary.LittleEndian.Uint16(buf[offPhentsize:])
	if phentsize != progHeaderBytes {
		return nil, errBadPhentsize
	}

	phoff := binary.LittleEndian.Uint64(buf[offPhoff:])
	phnum := binary.LittleEndian.Uint16(buf[offPhnum:])
	tableEnd := phoff + uint64(phnum)*progHeaderBytes
	if tableEnd < phoff || tableEnd > uint64(len(buf)) {
		return nil, errTruncatedPhdrs
	}

	img := &Image{
		Entry: binary.LittleEndian.Uint64(buf[offEntry:]),
		progs: make([]ProgHeader, phnum),
		buf:   buf,
	}

	for i := range img.progs {
		raw := buf[phoff+uint64(i)*progHeaderBytes:]
		p := &img.progs[i]
		p.Type = binary.LittleEndian.Uint32(raw[0:4])
		p.Flags = binary.LittleEndian.Uint32(raw[4:8])
		p.Off = binary.LittleEndian.Uint64(raw[8:16])
		p.Vaddr = binary.LittleEndian.Uint64(raw[16:24])
		p.Paddr = binary.LittleEndian.Uint64(raw[24:32])
		p.Filesz = binary.LittleEndian.Uint64(raw[32:40])
		p.Memsz = binary.LittleEndian.Uint64(raw[40:48])
		p.Align = binary.LittleEndian.Uint64(raw[48:56])

		if p.Type != ptLoad {
			continue
		}
		fileEnd := p.Off + p.Filesz
		if fileEnd < p.Off || fileEnd > uint64(len(buf)) {
			return nil, errSegmentBounds
		}
		if p.Filesz > p.Memsz {
			return nil, errSegmentOversize
		}
	}

	return img, nil
}

// Progs returns the program header table.
func (img *Image) Progs() []ProgHeader {
	return img.progs
}

// LoadRange computes the address range spanning every loadable segment by
// folding each PT_LOAD entry into a running minimum of the virtual address
// and a running maximum of the virtual address plus memory size. An image
// without a single loadable segment is a fatal image error, never an empty
// range.
func (img *Image) LoadRange() (first, last uint64, err *loader.Error) {
	first = ^uint64(0)
	last = 0

	for _, p := range img.progs {
		if p.Type != ptLoad {
			continue
		}
		if p.Vaddr < first {
			first = p.Vaddr
		}
		if end := p.Vaddr + p.Memsz; end > last {
			last = end
		}
	}

	if first > last {
		return 0, 0, errNoLoadSegments
	}
	return first, last, nil
}
