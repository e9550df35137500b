package efi

import "testing"

func TestMemoryTypeString(t *testing.T) {
	specs := []struct {
		input   MemoryType
		expName string
	}{
		{ReservedMemoryType, "EfiReservedMemoryType"},
		{LoaderData, "EfiLoaderData"},
		{ConventionalMemory, "EfiConventionalMemory"},
		{PersistentMemory, "EfiPersistentMemory"},
		{maxMemoryType, "EfiMaxMemoryType"},
		{MemoryType(0x70000000), "InvalidMemoryType"},
	}

	for specIndex, spec := range specs {
		if got := spec.input.String(); got != spec.expName {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.expName, got)
		}
	}
}

func TestStatusString(t *testing.T) {
	if got := Success.String(); got != "Success" {
		t.Errorf("expected Success; got %q", got)
	}
	if got := BufferTooSmall.String(); got != "BufferTooSmall" {
		t.Errorf("expected BufferTooSmall; got %q", got)
	}
	if got := Status(12345).String(); got != "InvalidStatus" {
		t.Errorf("expected InvalidStatus; got %q", got)
	}
}

func TestFindConfigTable(t *testing.T) {
	other := GUID{0x1, 0x2, 0x3, [8]byte{4, 5, 6, 7, 8, 9, 10, 11}}
	entries := []ConfigTableEntry{
		{VendorGUID: other, VendorTable: 0x1000},
		{VendorGUID: ACPITableGUID, VendorTable: 0xfee00000},
	}

	t.Run("present", func(t *testing.T) {
		addr, ok := FindConfigTable(entries, ACPITableGUID)
		if !ok || addr != 0xfee00000 {
			t.Fatalf("expected (0xfee00000, true); got (0x%x, %v)", addr, ok)
		}
	})

	t.Run("absent", func(t *testing.T) {
		addr, ok := FindConfigTable(entries[:1], ACPITableGUID)
		if ok || addr != 0 {
			t.Fatalf("expected (0, false); got (0x%x, %v)", addr, ok)
		}
	})

	t.Run("empty table list", func(t *testing.T) {
		if _, ok := FindConfigTable(nil, ACPITableGUID); ok {
			t.Fatal("expected no match in an empty table list")
		}
	})
}
