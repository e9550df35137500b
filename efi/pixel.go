package efi

// PixelFormat enumerates the pixel layouts a graphics device can report.
type PixelFormat uint32

// Pixel layouts, in the order the graphics protocol defines them.
const (
	PixelRedGreenBlueReserved8BitPerColor PixelFormat = iota
	PixelBlueGreenRedReserved8BitPerColor
	PixelBitMask
	PixelBltOnly
	pixelFormatMax
)

// String implements fmt.Stringer for PixelFormat.
func (f PixelFormat) String() string {
	switch f {
	case PixelRedGreenBlueReserved8BitPerColor:
		return "PixelRedGreenBlueReserved8BitPerColor"
	case PixelBlueGreenRedReserved8BitPerColor:
		return "PixelBlueGreenRedReserved8BitPerColor"
	case PixelBitMask:
		return "PixelBitMask"
	case PixelBltOnly:
		return "PixelBltOnly"
	case pixelFormatMax:
		return "PixelFormatMax"
	default:
		return "InvalidPixelFormat"
	}
}

// GraphicsMode describes the active mode of the graphics device as reported
// by the graphics collaborator. The loader performs no mode negotiation; it
// consumes the first enumerated device as-is.
type GraphicsMode struct {
	// The physical base address of the frame buffer.
	FrameBufferBase uint64

	// The size of the frame buffer in bytes.
	FrameBufferSize uint64

	// Pixels per scanline. May exceed HorizontalResolution.
	PixelsPerScanLine uint32

	// Visible resolution.
	HorizontalResolution uint32
	VerticalResolution   uint32

	// The layout of a pixel in frame buffer memory.
	PixelFormat PixelFormat
}
