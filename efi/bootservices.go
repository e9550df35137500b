package efi

import "io"

// FileMode holds the open-mode bits for Volume.Open.
type FileMode uint64

// Open modes. Creating a file requires all three bits, matching the firmware
// file protocol rules.
const (
	ModeRead   FileMode = 0x0000000000000001
	ModeWrite  FileMode = 0x0000000000000002
	ModeCreate FileMode = 0x8000000000000000
)

// File is an open file on the boot volume.
type File interface {
	io.ReadWriteCloser

	// Size returns the file size in bytes.
	Size() (uint64, Status)
}

// Volume is the root directory of the boot volume.
type Volume interface {
	// Open opens the named file with the given mode bits.
	Open(name string, mode FileMode) (File, Status)
}

// BootServices is the narrow set of firmware capabilities the loader
// consumes. Everything the hand-off pipeline does goes through this
// interface, so the pipeline can run unmodified against the fake firmware in
// efi/efitest. After a successful ExitBootServices call none of the other
// methods may be invoked again.
type BootServices interface {
	// GetMemoryMap captures the current memory inventory into m.Buffer
	// and fills in the map size, key, descriptor stride and version. It
	// returns BufferTooSmall when m.Buffer is nil or cannot hold the
	// current inventory.
	GetMemoryMap(m *MemoryMap) Status

	// AllocatePages reserves pages 4KiB pages of loader data memory at
	// the exact physical address addr.
	AllocatePages(addr uint64, pages uint64) Status

	// AllocatePool allocates a byte buffer of loader data memory.
	AllocatePool(size uint64) ([]byte, Status)

	// FreePool releases a buffer obtained from AllocatePool.
	FreePool(buf []byte) Status

	// ExitBootServices performs the one-shot exclusive transfer out of
	// the firmware environment. mapKey must be the key of the most
	// recently captured memory map; a stale key is rejected with
	// InvalidParameter and a fresh capture must be taken before the one
	// permitted retry.
	ExitBootServices(mapKey uint64) Status

	// OpenVolume opens the root directory of the volume this image was
	// loaded from.
	OpenVolume() (Volume, Status)

	// GraphicsMode reports the active mode of the first enumerated
	// graphics device.
	GraphicsMode() (*GraphicsMode, Status)

	// ConfigurationTable returns the system configuration table entries.
	ConfigurationTable() []ConfigTableEntry

	// ConsoleOut returns the console output sink used for diagnostics.
	ConsoleOut() io.Writer
}
