package efi

import "encoding/binary"

// descriptorBytes is the packed size of a MemoryDescriptor inside the raw
// map buffer. The firmware is free to report a larger stride
// (DescriptorSize) and the loader must honor it when walking the buffer.
const descriptorBytes = 40

// MemoryDescriptor describes one region of the firmware memory map.
type MemoryDescriptor struct {
	// The kind of the region.
	Type MemoryType

	// The physical address of the first byte of the region. Always 4KiB
	// aligned.
	PhysicalStart uint64

	// The virtual address of the region, if it has been mapped.
	VirtualStart uint64

	// The number of 4KiB pages in the region.
	NumberOfPages uint64

	// Attribute flags describing the capabilities of the region.
	Attribute uint64
}

// MemoryMap is a snapshot of the firmware-owned memory inventory. The
// snapshot is captured into the caller-provided Buffer; MapKey is the
// freshness token that the exclusive-transfer operation validates. Any
// mutating allocation performed after the capture invalidates the key.
type MemoryMap struct {
	// Buffer receives the raw descriptor array. It must be sized up
	// front; the capture fails with BufferTooSmall otherwise.
	Buffer []byte

	// MapSize is the number of Buffer bytes the last capture filled in.
	MapSize uint64

	// MapKey identifies the captured state of the memory map.
	MapKey uint64

	// DescriptorSize is the stride between consecutive descriptors in
	// Buffer. It may exceed the packed descriptor size.
	DescriptorSize uint64

	// DescriptorVersion is the layout version of the descriptors.
	DescriptorVersion uint32
}

// DescriptorCount returns the number of descriptors held by the snapshot.
func (m *MemoryMap) DescriptorCount() int {
	if m.DescriptorSize == 0 {
		return 0
	}
	return int(m.MapSize / m.DescriptorSize)
}

// DescriptorAt decodes the descriptor with the given index from the raw
// buffer, honoring the firmware-reported stride.
func (m *MemoryMap) DescriptorAt(index int) MemoryDescriptor {
	off := uint64(index) * m.DescriptorSize
	raw := m.Buffer[off : off+descriptorBytes]

	return MemoryDescriptor{
		Type:          MemoryType(binary.LittleEndian.Uint32(raw[0:4])),
		PhysicalStart: binary.LittleEndian.Uint64(raw[8:16]),
		VirtualStart:  binary.LittleEndian.Uint64(raw[16:24]),
		NumberOfPages: binary.LittleEndian.Uint64(raw[24:32]),
		Attribute:     binary.LittleEndian.Uint64(raw[32:40]),
	}
}

// RegionVisitor defines a visitor function that gets invoked by VisitRegions
// for each region of the snapshot. The visitor must return true to continue
// or false to abort the scan.
type RegionVisitor func(index int, desc MemoryDescriptor) bool

// VisitRegions invokes the supplied visitor for each memory region in
// capture order.
func (m *MemoryMap) VisitRegions(visitor RegionVisitor) {
	for i, count := 0, m.DescriptorCount(); i < count; i++ {
		if !visitor(i, m.DescriptorAt(i)) {
			return
		}
	}
}

// PutDescriptor encodes desc into buf using the packed descriptor layout.
// Fake firmware implementations and tests use it to assemble raw map
// buffers; buf must be at least as long as the packed descriptor size.
func PutDescriptor(buf []byte, desc MemoryDescriptor) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(desc.Type))
	binary.LittleEndian.PutUint32(buf[4:8], 0)
	binary.LittleEndian.PutUint64(buf[8:16], desc.PhysicalStart)
	binary.LittleEndian.PutUint64(buf[16:24], desc.VirtualStart)
	binary.LittleEndian.PutUint64(buf[24:32], desc.NumberOfPages)
	binary.LittleEndian.PutUint64(buf[32:40], desc.Attribute)
}
