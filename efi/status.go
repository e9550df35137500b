// Package efi defines the firmware-facing data model of the loader: status
// codes, the memory map snapshot, graphics mode information, configuration
// table entries and the narrow capability interface the loader core is
// written against. Keeping the interface narrow allows the whole hand-off
// pipeline to run against a fake firmware (see efi/efitest).
package efi

// Status mirrors the firmware EFI_STATUS word. Error statuses have the high
// bit set.
type Status uint64

const errBit Status = 1 << 63

// Status values used by the loader.
const (
	Success          Status = 0
	LoadError               = errBit | 1
	InvalidParameter        = errBit | 2
	Unsupported             = errBit | 3
	BufferTooSmall          = errBit | 5
	DeviceError             = errBit | 7
	OutOfResources          = errBit | 9
	NotFound                = errBit | 14
	AccessDenied            = errBit | 15
)

// String implements fmt.Stringer for Status.
func (s Status) String() string {
	switch s {
	case Success:
		return "Success"
	case LoadError:
		return "LoadError"
	case InvalidParameter:
		return "InvalidParameter"
	case Unsupported:
		return "Unsupported"
	case BufferTooSmall:
		return "BufferTooSmall"
	case DeviceError:
		return "DeviceError"
	case OutOfResources:
		return "OutOfResources"
	case NotFound:
		return "NotFound"
	case AccessDenied:
		return "AccessDenied"
	default:
		return "InvalidStatus"
	}
}

// Error implements the error interface so that hosted-flow code can wrap a
// non-success status directly.
func (s Status) Error() string {
	return s.String()
}
