package handoff

import "unsafe"

// jumpToKernel jumps to the kernel code at addr. The kernel entry contract
// is System V AMD64: the frame buffer description in RDI, the memory map
// snapshot in RSI and the platform table address in RDX. Implemented in
// entry_amd64.s; it does not return.
func jumpToKernel(addr uint64, fb, mmap unsafe.Pointer, acpiTable uint64)

// EntryAt returns a KernelEntry that jumps to the kernel code resident at
// the physical address addr. The address is the entry-point value decoded
// from the image header; the segments must already be resident.
func EntryAt(addr uint64) KernelEntry {
	return func(info *BootInfo) {
		jumpToKernel(addr,
			unsafe.Pointer(&info.FrameBuffer),
			unsafe.Pointer(info.MemoryMap),
			info.ACPITable)
	}
}
