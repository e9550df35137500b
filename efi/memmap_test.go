package efi

import "testing"

func TestMemoryMapHonorsDescriptorStride(t *testing.T) {
	// The firmware reports a stride larger than the packed descriptor;
	// the walk must skip the padding bytes.
	const stride = 48
	descs := []MemoryDescriptor{
		{Type: ConventionalMemory, PhysicalStart: 0x0, NumberOfPages: 0x10, Attribute: 0xf},
		{Type: ReservedMemoryType, PhysicalStart: 0x10000, NumberOfPages: 0x1, Attribute: 0x1},
		{Type: ACPIReclaimMemory, PhysicalStart: 0x20000, NumberOfPages: 0x8, Attribute: 0x9},
	}

	buf := make([]byte, stride*len(descs))
	for i, d := range descs {
		PutDescriptor(buf[i*stride:], d)
	}

	mmap := &MemoryMap{
		Buffer:         buf,
		MapSize:        uint64(len(buf)),
		DescriptorSize: stride,
	}

	if got := mmap.DescriptorCount(); got != len(descs) {
		t.Fatalf("expected %d descriptors; got %d", len(descs), got)
	}
	for i, exp := range descs {
		if got := mmap.DescriptorAt(i); got != exp {
			t.Errorf("descriptor %d: expected %+v; got %+v", i, exp, got)
		}
	}
}

func TestMemoryMapVisitRegions(t *testing.T) {
	const stride = 40
	buf := make([]byte, stride*4)
	for i := 0; i < 4; i++ {
		PutDescriptor(buf[i*stride:], MemoryDescriptor{PhysicalStart: uint64(i) << 16, NumberOfPages: 1})
	}

	mmap := &MemoryMap{Buffer: buf, MapSize: uint64(len(buf)), DescriptorSize: stride}

	t.Run("visits in capture order", func(t *testing.T) {
		var visited []int
		mmap.VisitRegions(func(index int, desc MemoryDescriptor) bool {
			if desc.PhysicalStart != uint64(index)<<16 {
				t.Errorf("expected region %d at 0x%x; got 0x%x", index, uint64(index)<<16, desc.PhysicalStart)
			}
			visited = append(visited, index)
			return true
		})
		if len(visited) != 4 {
			t.Fatalf("expected 4 regions visited; got %d", len(visited))
		}
	})

	t.Run("aborts when the visitor returns false", func(t *testing.T) {
		var visited int
		mmap.VisitRegions(func(int, MemoryDescriptor) bool {
			visited++
			return visited < 2
		})
		if visited != 2 {
			t.Fatalf("expected the scan to stop after 2 regions; got %d", visited)
		}
	})
}

func TestMemoryMapEmpty(t *testing.T) {
	mmap := &MemoryMap{}
	if got := mmap.DescriptorCount(); got != 0 {
		t.Fatalf("expected 0 descriptors for an empty map; got %d", got)
	}
}
