//go:build !amd64

package handoff

import "github.com/smallkirby/zakuro-os/loader"

var errEntryUnsupportedArch = &loader.Error{Module: "handoff", Message: "kernel entry jump is only implemented for amd64"}

// EntryAt is a placeholder on architectures without a jump thunk. The
// returned entry panics the loader; only the hosted simulator (which injects
// its own entry) runs on non-amd64 hosts.
func EntryAt(addr uint64) KernelEntry {
	return func(*BootInfo) {
		loader.Panic(errEntryUnsupportedArch)
	}
}
