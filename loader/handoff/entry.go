package handoff

import "github.com/smallkirby/zakuro-os/loader"

// haltFn is mocked by tests.
var haltFn = loader.Halt

// KernelEntry invokes the kernel entry point with the supplied argument
// block. Implementations are expected never to return.
type KernelEntry func(*BootInfo)

// Transfer performs the non-returning call into the kernel. If the entry
// does return, the loader has no recovery path: firmware services are gone
// and no output channel may be assumed usable, so the processor is halted
// immediately without attempting any diagnostics.
func Transfer(entry KernelEntry, info *BootInfo) {
	entry(info)

	haltFn()
}
