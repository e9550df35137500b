package elfload

import (
	"github.com/smallkirby/zakuro-os/efi"
	"github.com/smallkirby/zakuro-os/loader"
)

const (
	// PageShift is equal to log2(PageSize).
	PageShift = 12

	// PageSize is the allocation granularity of the firmware page
	// allocator.
	PageSize = 1 << PageShift
)

var errSegmentNotBacked = &loader.Error{Module: "elfload", Message: "segment destination is not backed by reserved memory"}

// PagesFor returns the number of pages needed to cover n bytes, rounding up
// to page granularity.
func PagesFor(n uint64) uint64 {
	return (n + PageSize - 1) / PageSize
}

// CopySegments copies every loadable segment of img to its virtual (here,
// identity-mapped physical) address and zeroes the tail of its memory
// footprint beyond the file-backed bytes. The destination range must have
// been exclusively reserved beforehand; a copy failure leaves a partially
// loaded image that cannot safely run, so the caller must treat it as fatal.
func CopySegments(img *Image, mem efi.Memory) *loader.Error {
	for _, p := range img.progs {
		if p.Type != ptLoad {
			continue
		}

		dst, st := mem.Slice(p.Vaddr, p.Memsz)
		if st != efi.Success {
			return errSegmentNotBacked
		}

		copy(dst[:p.Filesz], img.buf[p.Off:p.Off+p.Filesz])

		// memsz may exceed filesz (e.g. .bss); the remainder must be
		// zeroed explicitly since the pages may hold stale contents.
		tail := dst[p.Filesz:]
		for i := range tail {
			tail[i] = 0
		}
	}

	return nil
}
