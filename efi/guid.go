package efi

// GUID identifies a vendor configuration table entry.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// ACPITableGUID identifies the ACPI 2.0 table entry in the system
// configuration table.
var ACPITableGUID = GUID{
	0x8868e871, 0xe4f1, 0x11d3,
	[8]byte{0xbc, 0x22, 0x00, 0x80, 0xc7, 0x3c, 0x88, 0x81},
}

// Equal reports whether two GUIDs are the same.
func (g GUID) Equal(other GUID) bool {
	return g == other
}

// ConfigTableEntry is one entry of the system configuration table.
type ConfigTableEntry struct {
	VendorGUID GUID

	// VendorTable is the physical address of the vendor table. The loader
	// never dereferences it; it is handed to the kernel as-is.
	VendorTable uint64
}

// FindConfigTable scans the configuration table entries for the table
// identified by guid. It returns the table address and true on a match.
// Absence is a valid condition, not an error.
func FindConfigTable(entries []ConfigTableEntry, guid GUID) (uint64, bool) {
	for _, entry := range entries {
		if entry.VendorGUID.Equal(guid) {
			return entry.VendorTable, true
		}
	}
	return 0, false
}
