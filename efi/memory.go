package efi

import "unsafe"

// Memory provides byte-level access to physical memory. The segment loader
// writes kernel segments through this interface so that the same code runs
// against real identity-mapped memory in firmware and against an arena in
// the simulator.
type Memory interface {
	// Slice returns a writable window of n bytes starting at the physical
	// address addr, or a non-success status if the range is not backed.
	Slice(addr uint64, n uint64) ([]byte, Status)
}

// IdentityMemory implements Memory for an environment where physical memory
// is identity mapped, which is the state the firmware leaves the loader in.
type IdentityMemory struct{}

// Slice returns the identity-mapped window for [addr, addr+n).
func (IdentityMemory) Slice(addr uint64, n uint64) ([]byte, Status) {
	if n == 0 {
		return nil, InvalidParameter
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), n), Success
}
