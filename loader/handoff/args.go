package handoff

import (
	"github.com/smallkirby/zakuro-os/efi"
	"github.com/smallkirby/zakuro-os/loader"
)

var errUnsupportedPixelFormat = &loader.Error{Module: "handoff", Message: "unsupported pixel format"}

// PixelFormat is the pixel layout tag the kernel rendering code understands.
// It is a closed enumeration: the kernel has no generic fallback, so only
// the two 8-bit-per-color reserved-channel orderings are representable.
type PixelFormat uint8

const (
	// PixelRGBResv8BitPerColor lays out a pixel as red, green, blue and a
	// reserved byte.
	PixelRGBResv8BitPerColor PixelFormat = iota

	// PixelBGRResv8BitPerColor lays out a pixel as blue, green, red and a
	// reserved byte.
	PixelBGRResv8BitPerColor
)

// String implements fmt.Stringer for PixelFormat.
func (f PixelFormat) String() string {
	switch f {
	case PixelRGBResv8BitPerColor:
		return "RGB-reserved-8"
	case PixelBGRResv8BitPerColor:
		return "BGR-reserved-8"
	default:
		return "invalid"
	}
}

// FrameBufferConfig describes the frame buffer to the kernel. The layout is
// part of the kernel ABI and must not change independently of it.
type FrameBufferConfig struct {
	// The physical base address of the frame buffer.
	Base uint64

	// Pixels per scanline, which may exceed the visible width.
	PixelsPerScanLine uint32

	// Visible resolution.
	HorizontalResolution uint32
	VerticalResolution   uint32

	// The pixel layout.
	Format PixelFormat
}

// NewFrameBufferConfig maps the graphics mode reported by the firmware to
// the kernel's frame buffer description. Only the two reserved-channel
// orderings are recognized; any other reported layout is an unsupported
// configuration and fatal for the caller.
func NewFrameBufferConfig(mode *efi.GraphicsMode) (FrameBufferConfig, *loader.Error) {
	cfg := FrameBufferConfig{
		Base:                 mode.FrameBufferBase,
		PixelsPerScanLine:    mode.PixelsPerScanLine,
		HorizontalResolution: mode.HorizontalResolution,
		VerticalResolution:   mode.VerticalResolution,
	}

	switch mode.PixelFormat {
	case efi.PixelRedGreenBlueReserved8BitPerColor:
		cfg.Format = PixelRGBResv8BitPerColor
	case efi.PixelBlueGreenRedReserved8BitPerColor:
		cfg.Format = PixelBGRResv8BitPerColor
	default:
		return FrameBufferConfig{}, errUnsupportedPixelFormat
	}

	return cfg, nil
}

// Profile selects the argument-block shape of the kernel entry contract.
// The two shapes are not interchangeable at the entry point, so the profile
// is fixed at build configuration time and never switched mid-flight.
type Profile uint8

const (
	// ProfileFull passes the frame buffer description, the memory map
	// snapshot and the platform table pointer.
	ProfileFull Profile = iota

	// ProfileFramebufferOnly passes only the frame buffer description.
	// It exists for kernels that bring their own memory discovery.
	ProfileFramebufferOnly
)

// String implements fmt.Stringer for Profile.
func (p Profile) String() string {
	switch p {
	case ProfileFull:
		return "full"
	case ProfileFramebufferOnly:
		return "framebuffer-only"
	default:
		return "invalid"
	}
}

// BootInfo is the argument block handed to the kernel entry point. It is
// immutable after construction: ownership of everything it references
// passes to the kernel, and the loader never touches those addresses again.
type BootInfo struct {
	FrameBuffer FrameBufferConfig

	// MemoryMap is the final (possibly re-captured) snapshot. Nil under
	// ProfileFramebufferOnly.
	MemoryMap *efi.MemoryMap

	// ACPITable is the physical address of the platform configuration
	// table, or zero if the firmware reports none.
	ACPITable uint64
}

// BuildBootInfo assembles the argument block for the selected profile.
func BuildBootInfo(profile Profile, fb FrameBufferConfig, mmap *efi.MemoryMap, acpiTable uint64) *BootInfo {
	info := &BootInfo{FrameBuffer: fb}
	if profile == ProfileFull {
		info.MemoryMap = mmap
		info.ACPITable = acpiTable
	}
	return info
}
