package efi

// MemoryType defines the kind of a memory map region.
type MemoryType uint32

// Memory region kinds reported by the firmware memory map.
const (
	ReservedMemoryType MemoryType = iota
	LoaderCode
	LoaderData
	BootServicesCode
	BootServicesData
	RuntimeServicesCode
	RuntimeServicesData
	ConventionalMemory
	UnusableMemory
	ACPIReclaimMemory
	ACPIMemoryNVS
	MemoryMappedIO
	MemoryMappedIOPortSpace
	PalCode
	PersistentMemory
	maxMemoryType
)

// String implements fmt.Stringer for MemoryType. The names match the ones
// the firmware documentation uses so the persisted memory map report can be
// compared against reports produced by other tooling.
func (t MemoryType) String() string {
	switch t {
	case ReservedMemoryType:
		return "EfiReservedMemoryType"
	case LoaderCode:
		return "EfiLoaderCode"
	case LoaderData:
		return "EfiLoaderData"
	case BootServicesCode:
		return "EfiBootServicesCode"
	case BootServicesData:
		return "EfiBootServicesData"
	case RuntimeServicesCode:
		return "EfiRuntimeServicesCode"
	case RuntimeServicesData:
		return "EfiRuntimeServicesData"
	case ConventionalMemory:
		return "EfiConventionalMemory"
	case UnusableMemory:
		return "EfiUnusableMemory"
	case ACPIReclaimMemory:
		return "EfiACPIReclaimMemory"
	case ACPIMemoryNVS:
		return "EfiACPIMemoryNVS"
	case MemoryMappedIO:
		return "EfiMemoryMappedIO"
	case MemoryMappedIOPortSpace:
		return "EfiMemoryMappedIOPortSpace"
	case PalCode:
		return "EfiPalCode"
	case PersistentMemory:
		return "EfiPersistentMemory"
	case maxMemoryType:
		return "EfiMaxMemoryType"
	default:
		return "InvalidMemoryType"
	}
}
