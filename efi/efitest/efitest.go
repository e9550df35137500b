// Package efitest provides an in-memory firmware implementing the
// efi.BootServices capability interface. It backs the loader's tests and
// the hosted simulator: physical memory is a byte-slice arena, the memory
// map is synthetic, and the map key goes stale on every allocation exactly
// like the real service, so the exit-retry contract can be exercised
// without firmware present.
package efitest

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/smallkirby/zakuro-os/efi"
)

// Firmware is a fake firmware environment. The zero value is not usable;
// construct instances with New.
type Firmware struct {
	arena     []byte
	arenaBase uint64

	regions        []efi.MemoryDescriptor
	descriptorSize uint64
	mapKey         uint64

	graphics *efi.GraphicsMode
	tables   []efi.ConfigTableEntry
	files    map[string]*memFile
	conOut   io.Writer

	// ForceExitRejections makes ExitBootServices reject that many calls
	// regardless of the supplied key, bumping the map key each time so
	// the rejected snapshot is genuinely stale afterwards.
	ForceExitRejections int

	exited      bool
	captures    int
	exitKeys    []uint64
	reserved    [][2]uint64
	poolBuffers int
}

// Option mutates a Firmware under construction.
type Option func(*Firmware)

// WithArena installs the physical memory arena starting at base.
func WithArena(base uint64, arena []byte) Option {
	return func(f *Firmware) {
		f.arenaBase = base
		f.arena = arena
	}
}

// WithRegions installs the synthetic memory map regions.
func WithRegions(regions ...efi.MemoryDescriptor) Option {
	return func(f *Firmware) { f.regions = regions }
}

// WithGraphics installs the reported graphics mode.
func WithGraphics(mode *efi.GraphicsMode) Option {
	return func(f *Firmware) { f.graphics = mode }
}

// WithConfigTable installs the system configuration table entries.
func WithConfigTable(entries ...efi.ConfigTableEntry) Option {
	return func(f *Firmware) { f.tables = entries }
}

// WithFile seeds a file on the boot volume.
func WithFile(name string, contents []byte) Option {
	return func(f *Firmware) {
		f.files[name] = &memFile{contents: append([]byte(nil), contents...)}
	}
}

// WithConsoleOut installs the console output sink.
func WithConsoleOut(w io.Writer) Option {
	return func(f *Firmware) { f.conOut = w }
}

// New constructs a Firmware with a realistic descriptor stride and applies
// the supplied options.
func New(opts ...Option) *Firmware {
	f := &Firmware{
		descriptorSize: 48,
		mapKey:         1,
		files:          map[string]*memFile{},
		conOut:         io.Discard,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Captures returns how many memory map captures have been served.
func (f *Firmware) Captures() int {
	return f.captures
}

// ExitKeys returns the map keys passed to ExitBootServices, in call order.
func (f *Firmware) ExitKeys() []uint64 {
	return f.exitKeys
}

// Exited reports whether boot services have been exited.
func (f *Firmware) Exited() bool {
	return f.exited
}

// MapKey returns the current freshness token.
func (f *Firmware) MapKey() uint64 {
	return f.mapKey
}

// FileContents returns the contents of a volume file, e.g. to inspect a
// written report.
func (f *Firmware) FileContents(name string) ([]byte, bool) {
	file, ok := f.files[name]
	if !ok {
		return nil, false
	}
	return file.contents, true
}

// GetMemoryMap implements efi.BootServices.
func (f *Firmware) GetMemoryMap(m *efi.MemoryMap) efi.Status {
	if f.exited {
		return efi.Unsupported
	}

	need := f.descriptorSize * uint64(len(f.regions))
	if m.Buffer == nil || uint64(len(m.Buffer)) < need {
		m.MapSize = need
		return efi.BufferTooSmall
	}

	for i, desc := range f.regions {
		off := uint64(i) * f.descriptorSize
		efi.PutDescriptor(m.Buffer[off:], desc)
	}
	m.MapSize = need
	m.MapKey = f.mapKey
	m.DescriptorSize = f.descriptorSize
	m.DescriptorVersion = 1
	f.captures++
	return efi.Success
}

// AllocatePages implements efi.BootServices. The requested range must lie
// inside the arena and must not overlap a previous reservation.
func (f *Firmware) AllocatePages(addr uint64, pages uint64) efi.Status {
	if f.exited {
		return efi.Unsupported
	}

	size := pages * 4096
	if addr < f.arenaBase || addr+size > f.arenaBase+uint64(len(f.arena)) {
		return efi.OutOfResources
	}
	for _, r := range f.reserved {
		if addr < r[1] && r[0] < addr+size {
			return efi.OutOfResources
		}
	}

	f.reserved = append(f.reserved, [2]uint64{addr, addr + size})
	f.mapKey++
	return efi.Success
}

// AllocatePool implements efi.BootServices.
func (f *Firmware) AllocatePool(size uint64) ([]byte, efi.Status) {
	if f.exited {
		return nil, efi.Unsupported
	}
	f.poolBuffers++
	f.mapKey++
	return make([]byte, size), efi.Success
}

// FreePool implements efi.BootServices.
func (f *Firmware) FreePool(buf []byte) efi.Status {
	if f.exited {
		return efi.Unsupported
	}
	if f.poolBuffers == 0 {
		return efi.InvalidParameter
	}
	f.poolBuffers--
	return efi.Success
}

// ExitBootServices implements efi.BootServices. The call is recorded, then
// validated against forced rejections and the current map key.
func (f *Firmware) ExitBootServices(mapKey uint64) efi.Status {
	f.exitKeys = append(f.exitKeys, mapKey)

	if f.exited {
		return efi.InvalidParameter
	}
	if f.ForceExitRejections > 0 {
		f.ForceExitRejections--
		f.mapKey++
		return efi.InvalidParameter
	}
	if mapKey != f.mapKey {
		return efi.InvalidParameter
	}

	f.exited = true
	return efi.Success
}

// OpenVolume implements efi.BootServices.
func (f *Firmware) OpenVolume() (efi.Volume, efi.Status) {
	if f.exited {
		return nil, efi.Unsupported
	}
	return (*memVolume)(f), efi.Success
}

// GraphicsMode implements efi.BootServices.
func (f *Firmware) GraphicsMode() (*efi.GraphicsMode, efi.Status) {
	if f.exited || f.graphics == nil {
		return nil, efi.NotFound
	}
	mode := *f.graphics
	return &mode, efi.Success
}

// ConfigurationTable implements efi.BootServices.
func (f *Firmware) ConfigurationTable() []efi.ConfigTableEntry {
	return f.tables
}

// ConsoleOut implements efi.BootServices.
func (f *Firmware) ConsoleOut() io.Writer {
	return f.conOut
}

// Slice implements efi.Memory over the arena.
func (f *Firmware) Slice(addr uint64, n uint64) ([]byte, efi.Status) {
	if addr < f.arenaBase || addr+n > f.arenaBase+uint64(len(f.arena)) {
		return nil, efi.InvalidParameter
	}
	off := addr - f.arenaBase
	return f.arena[off : off+n], efi.Success
}

// memVolume implements efi.Volume over the firmware's file set.
type memVolume Firmware

// Open implements efi.Volume.
func (v *memVolume) Open(name string, mode efi.FileMode) (efi.File, efi.Status) {
	file, ok := v.files[name]
	if !ok {
		if mode&efi.ModeCreate == 0 {
			return nil, efi.NotFound
		}
		file = &memFile{}
		v.files[name] = file
	}
	return &fileHandle{file: file, reader: bytes.NewReader(file.contents)}, efi.Success
}

// memFile is the stored state of a volume file.
type memFile struct {
	contents []byte
}

// fileHandle is one open handle with its own read cursor. Writes append to
// the stored contents, which is all the loader needs for report files.
type fileHandle struct {
	file   *memFile
	reader *bytes.Reader
	closed bool
}

var errFileClosed = errors.New("file handle is closed")

func (h *fileHandle) Read(p []byte) (int, error) {
	if h.closed {
		return 0, errFileClosed
	}
	return h.reader.Read(p)
}

func (h *fileHandle) Write(p []byte) (int, error) {
	if h.closed {
		return 0, errFileClosed
	}
	h.file.contents = append(h.file.contents, p...)
	return len(p), nil
}

func (h *fileHandle) Close() error {
	if h.closed {
		return errFileClosed
	}
	h.closed = true
	return nil
}

// Size implements efi.File.
func (h *fileHandle) Size() (uint64, efi.Status) {
	if h.closed {
		return 0, efi.InvalidParameter
	}
	return uint64(len(h.file.contents)), efi.Success
}
