// Package handoff implements the final, irreversible stages of the boot
// pipeline: the memory map snapshot and the exclusive exit from the firmware
// environment, the construction of the argument block the kernel entry point
// expects, and the non-returning transfer of control.
package handoff

import (
	"github.com/smallkirby/zakuro-os/efi"
	"github.com/smallkirby/zakuro-os/loader"
)

var (
	errSnapshotFailed   = &loader.Error{Module: "handoff", Message: "could not capture the memory map"}
	errSnapshotTooSmall = &loader.Error{Module: "handoff", Message: "memory map buffer is too small for the current inventory"}
	errExitRejected     = &loader.Error{Module: "handoff", Message: "firmware rejected the exit after a fresh snapshot"}
	errAlreadyExited    = &loader.Error{Module: "handoff", Message: "boot services already exited"}
)

// gateState tracks the progress of the exit state machine.
type gateState uint8

const (
	stateIdle gateState = iota
	stateCaptured
	stateExited
)

// Gate owns the memory map snapshot and the one-shot exit from the firmware
// environment. The exit can be rejected once with a stale snapshot key; the
// gate then re-captures the snapshot in place and retries exactly once more.
// A second rejection is fatal: retrying further cannot converge without a
// model of what keeps mutating the map, and boot services are already
// partially torn down at that point.
type Gate struct {
	fw    efi.BootServices
	mmap  *efi.MemoryMap
	state gateState
}

// NewGate returns a Gate capturing into mmap. mmap.Buffer must be sized by
// the caller; the gate never grows it.
func NewGate(fw efi.BootServices, mmap *efi.MemoryMap) *Gate {
	return &Gate{fw: fw, mmap: mmap}
}

// MemoryMap returns the snapshot the gate captures into.
func (g *Gate) MemoryMap() *efi.MemoryMap {
	return g.mmap
}

// Exited reports whether the exclusive transfer has completed. Once true,
// no firmware service may be invoked again.
func (g *Gate) Exited() bool {
	return g.state == stateExited
}

// Capture takes a snapshot of the memory inventory into the gate's buffer.
func (g *Gate) Capture() *loader.Error {
	if g.state == stateExited {
		return errAlreadyExited
	}
	if st := g.fw.GetMemoryMap(g.mmap); st != efi.Success {
		if st == efi.BufferTooSmall {
			return errSnapshotTooSmall
		}
		return errSnapshotFailed
	}
	g.state = stateCaptured
	return nil
}

// Exit relinquishes the firmware environment using the key of the most
// recent capture. On a stale-key rejection it re-captures once and retries;
// the retried call therefore always carries the key of the freshest
// snapshot. A second rejection is returned to the caller as fatal.
func (g *Gate) Exit() *loader.Error {
	if g.state == stateExited {
		return errAlreadyExited
	}
	if g.state != stateCaptured {
		if err := g.Capture(); err != nil {
			return err
		}
	}

	if st := g.fw.ExitBootServices(g.mmap.MapKey); st != efi.Success {
		// The map has changed since the capture. Take a fresh
		// snapshot and retry once; its key is the one the retried
		// call must carry.
		if err := g.Capture(); err != nil {
			return err
		}
		if st := g.fw.ExitBootServices(g.mmap.MapKey); st != efi.Success {
			return errExitRejected
		}
	}

	g.state = stateExited
	return nil
}
