package elfload

import (
	"encoding/binary"
	"testing"
)

// segSpec describes one program header of a synthetic test image.
type segSpec struct {
	ptype          uint32
	vaddr          uint64
	memsz          uint64
	data           []byte
	fileszOverride uint64
}

func (s segSpec) filesz() uint64 {
	if s.fileszOverride != 0 {
		return s.fileszOverride
	}
	return uint64(len(s.data))
}

// buildImage assembles a minimal ELF64 little-endian executable: header,
// program header table, then the segment payloads back to back.
func buildImage(entry uint64, segs []segSpec) []byte {
	phoff := uint64(headerBytes)
	dataOff := phoff + uint64(len(segs))*progHeaderBytes

	size := dataOff
	for _, s := range segs {
		size += uint64(len(s.data))
	}
	buf := make([]byte, size)

	copy(buf[0:4], elfMagic[:])
	buf[4] = classELF64
	buf[5] = dataLittleEndian
	buf[6] = 1                                    // EV_CURRENT
	binary.LittleEndian.PutUint16(buf[16:], 2)    // ET_EXEC
	binary.LittleEndian.PutUint16(buf[18:], 0x3e) // EM_X86_64
	binary.LittleEndian.PutUint64(buf[offEntry:], entry)
	binary.LittleEndian.PutUint64(buf[offPhoff:], phoff)
	binary.LittleEndian.PutUint16(buf[offPhentsize:], progHeaderBytes)
	binary.LittleEndian.PutUint16(buf[offPhnum:], uint16(len(segs)))

	off := dataOff
	for i, s := range segs {
		raw := buf[phoff+uint64(i)*progHeaderBytes:]
		binary.LittleEndian.PutUint32(raw[0:4], s.ptype)
		binary.LittleEndian.PutUint64(raw[8:16], off)
		binary.LittleEndian.PutUint64(raw[16:24], s.vaddr)
		binary.LittleEndian.PutUint64(raw[24:32], s.vaddr)
		binary.LittleEndian.PutUint64(raw[32:40], s.filesz())
		binary.LittleEndian.PutUint64(raw[40:48], s.memsz)
		binary.LittleEndian.PutUint64(raw[48:56], PageSize)
		copy(buf[off:], s.data)
		off += uint64(len(s.data))
	}

	return buf
}

func TestParseImage(t *testing.T) {
	img, err := ParseImage(buildImage(0x101000, []segSpec{
		{ptype: ptLoad, vaddr: 0x100000, memsz: 8, data: []byte("codecode")},
		{ptype: 4 /* PT_NOTE */, vaddr: 0, memsz: 0},
		{ptype: ptLoad, vaddr: 0x103000, memsz: 32, data: []byte("data")},
	}))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	if img.Entry != 0x101000 {
		t.Errorf("expected entry 0x101000; got 0x%x", img.Entry)
	}
	if got := len(img.Progs()); got != 3 {
		t.Fatalf("expected 3 program headers; got %d", got)
	}
	if p := img.Progs()[2]; p.Filesz != 4 || p.Memsz != 32 {
		t.Errorf("expected filesz/memsz 4/32 for last segment; got %d/%d", p.Filesz, p.Memsz)
	}
}

func TestParseImageErrors(t *testing.T) {
	valid := buildImage(0, []segSpec{{ptype: ptLoad, vaddr: 0x100000, memsz: 4, data: []byte("code")}})

	badMagic := append([]byte(nil), valid...)
	badMagic[0] = 'X'

	notELF64 := append([]byte(nil), valid...)
	notELF64[4] = 1

	bigEndian := append([]byte(nil), valid...)
	bigEndian[5] = 2

	badPhentsize := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint16(badPhentsize[offPhentsize:], 32)

	truncatedTable := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint16(truncatedTable[offPhnum:], 100)

	overlongSegment := buildImage(0, []segSpec{
		{ptype: ptLoad, vaddr: 0x100000, memsz: 1 << 20, data: []byte("code"), fileszOverride: 1 << 20},
	})

	shrunkMemsz := buildImage(0, []segSpec{
		{ptype: ptLoad, vaddr: 0x100000, memsz: 1, data: []byte("code")},
	})

	specs := []struct {
		descr  string
		input  []byte
		expErr error
	}{
		{"empty buffer", nil, errImageTooShort},
		{"short buffer", valid[:headerBytes-1], errImageTooShort},
		{"bad magic", badMagic, errBadMagic},
		{"32-bit class", notELF64, errNotELF64},
		{"big endian", bigEndian, errBadByteOrder},
		{"bad phentsize", badPhentsize, errBadPhentsize},
		{"truncated phdr table", truncatedTable, errTruncatedPhdrs},
		{"segment past buffer end", overlongSegment, errSegmentBounds},
		{"filesz above memsz", shrunkMemsz, errSegmentOversize},
	}

	for _, spec := range specs {
		t.Run(spec.descr, func(t *testing.T) {
			if _, err := ParseImage(spec.input); err != spec.expErr {
				t.Errorf("expected error %v; got %v", spec.expErr, err)
			}
		})
	}
}

func TestLoadRange(t *testing.T) {
	img, err := ParseImage(buildImage(0, []segSpec{
		{ptype: ptLoad, vaddr: 0x102000, memsz: 0x100, data: []byte("b")},
		{ptype: 1 << 30 /* vendor-specific */, vaddr: 0x1, memsz: 0x10},
		{ptype: ptLoad, vaddr: 0x100000, memsz: 0x10, data: []byte("a")},
	}))
	if err != nil {
		t.Fatal(err)
	}

	first, last, rerr := img.LoadRange()
	if rerr != nil {
		t.Fatalf("unexpected error: %v", rerr)
	}
	if first > last {
		t.Fatalf("expected first <= last; got 0x%x > 0x%x", first, last)
	}
	if first != 0x100000 {
		t.Errorf("expected first to be the minimum loadable vaddr 0x100000; got 0x%x", first)
	}
	if exp := uint64(0x102100); last != exp {
		t.Errorf("expected last 0x%x; got 0x%x", exp, last)
	}
}

func TestLoadRangeNoLoadableSegments(t *testing.T) {
	img, err := ParseImage(buildImage(0, []segSpec{
		{ptype: 4, vaddr: 0x100000, memsz: 0x10},
	}))
	if err != nil {
		t.Fatal(err)
	}

	if _, _, rerr := img.LoadRange(); rerr != errNoLoadSegments {
		t.Fatalf("expected errNoLoadSegments; got %v", rerr)
	}
}

func TestPagesFor(t *testing.T) {
	specs := []struct {
		input    uint64
		expPages uint64
	}{
		{0, 0},
		{1, 1},
		{PageSize - 1, 1},
		{PageSize, 1},
		{PageSize + 1, 2},
		{10*PageSize + 123, 11},
	}

	for specIndex, spec := range specs {
		if got := PagesFor(spec.input); got != spec.expPages {
			t.Errorf("[spec %d] expected PagesFor(%d) to return %d; got %d", specIndex, spec.input, spec.expPages, got)
		}
	}
}
