// Package report persists a memory map snapshot as comma-separated text.
// The format is shared with external tooling that post-processes the boot
// volume, so the header line and the field order are fixed.
package report

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/smallkirby/zakuro-os/efi"
)

// Header is the first line of every report.
const Header = "Index, Type, Type(name), PhysicalStart, NumberOfPages, Attribute\n"

// AttributeMask keeps the architecturally meaningful low 20 attribute bits;
// the upper bits are runtime hints the report consumers do not care about.
const AttributeMask = 0xfffff

// Write renders one row per memory region of the snapshot, preceded by the
// header line.
func Write(w io.Writer, mmap *efi.MemoryMap) error {
	if _, err := io.WriteString(w, Header); err != nil {
		return errors.Wrap(err, "write header")
	}

	for i, count := 0, mmap.DescriptorCount(); i < count; i++ {
		desc := mmap.DescriptorAt(i)
		_, err := fmt.Fprintf(w, "%d, %x, %s, %08x, %x, %x\n",
			i, uint32(desc.Type), desc.Type,
			desc.PhysicalStart, desc.NumberOfPages,
			desc.Attribute&AttributeMask)
		if err != nil {
			return errors.Wrapf(err, "write row %d", i)
		}
	}

	return nil
}
