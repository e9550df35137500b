// Command zakuroboot runs the boot pipeline on a host, with the firmware
// replaced by the in-memory implementation from efi/efitest. It exists for
// development: it boots a real kernel ELF from disk into an mmap-backed
// physical arena, exercises the exact hand-off sequence including the
// exit-retry path, and dumps the argument block the kernel would receive.
//
// Configuration is taken from the environment:
//
//	ZAKURO_KERNEL    path of the kernel ELF (default kernel.elf)
//	ZAKURO_MEMMAP    host path the memory map report is copied to (default memmap.csv)
//	ZAKURO_PROFILE   "full" or "framebuffer-only" (default full)
//	ZAKURO_ARENA_MB  size of the physical arena in MiB (default 64)
package main

import (
	"bytes"
	"debug/elf"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/xyproto/env/v2"
	"golang.org/x/sys/unix"

	"github.com/smallkirby/zakuro-os/efi"
	"github.com/smallkirby/zakuro-os/efi/efitest"
	"github.com/smallkirby/zakuro-os/loader"
	"github.com/smallkirby/zakuro-os/loader/bootmain"
	"github.com/smallkirby/zakuro-os/loader/handoff"
)

const kernelPath = `\kernel.elf`
const reportPath = `\memmap`

func main() {
	logger := log.With(
		log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr)),
		"ts", log.DefaultTimestampUTC,
	)
	loader.SetLogger(logger)
	loader.SetHaltHandler(func() {
		level.Error(logger).Log("msg", "loader halted")
		os.Exit(1)
	})

	kernelFile := env.Str("ZAKURO_KERNEL", "kernel.elf")
	reportFile := env.Str("ZAKURO_MEMMAP", "memmap.csv")
	arenaMB := env.Int("ZAKURO_ARENA_MB", 64)
	profile := handoff.ProfileFull
	if env.Str("ZAKURO_PROFILE", "full") == "framebuffer-only" {
		profile = handoff.ProfileFramebufferOnly
	}

	kernel, err := os.ReadFile(kernelFile)
	if err != nil {
		level.Error(logger).Log("msg", "cannot read kernel image", "path", kernelFile, "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log("msg", "kernel image read", "path", kernelFile, "size", humanize.IBytes(uint64(len(kernel))))

	// Cross-check the image with the stdlib parser before booting it, so
	// obviously broken images fail with a readable message instead of a
	// simulated halt.
	if ef, err := elf.NewFile(bytes.NewReader(kernel)); err != nil {
		level.Error(logger).Log("msg", "kernel is not a valid ELF", "err", err)
		os.Exit(1)
	} else {
		level.Info(logger).Log("msg", "kernel ELF", "entry", ef.Entry, "progs", len(ef.Progs))
		ef.Close()
	}

	arena, err := unix.Mmap(-1, 0, arenaMB<<20,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		level.Error(logger).Log("msg", "cannot map the physical arena", "err", err)
		os.Exit(1)
	}
	defer unix.Munmap(arena)
	level.Info(logger).Log("msg", "physical arena mapped", "size", humanize.IBytes(uint64(len(arena))))

	fw := efitest.New(
		efitest.WithArena(0x100000, arena),
		efitest.WithRegions(
			efi.MemoryDescriptor{Type: efi.ConventionalMemory, PhysicalStart: 0x100000, NumberOfPages: uint64(arenaMB) << 8, Attribute: 0xf},
			efi.MemoryDescriptor{Type: efi.ReservedMemoryType, PhysicalStart: 0, NumberOfPages: 0x100, Attribute: 0x1},
		),
		efitest.WithGraphics(&efi.GraphicsMode{
			FrameBufferBase:      0xc0000000,
			FrameBufferSize:      800 * 600 * 4,
			PixelsPerScanLine:    800,
			HorizontalResolution: 800,
			VerticalResolution:   600,
			PixelFormat:          efi.PixelRedGreenBlueReserved8BitPerColor,
		}),
		efitest.WithConfigTable(efi.ConfigTableEntry{
			VendorGUID:  efi.ACPITableGUID,
			VendorTable: 0xfee00000,
		}),
		efitest.WithFile(kernelPath, kernel),
		efitest.WithConsoleOut(os.Stderr),
	)

	bootmain.Boot(bootmain.Config{
		Firmware: fw,
		Memory:   fw,
		Profile:  profile,
		Logger:   logger,
		MakeEntry: func(addr uint64) handoff.KernelEntry {
			return func(info *handoff.BootInfo) {
				stubKernel(fw, addr, info, reportFile)
			}
		},
	})
}

// stubKernel stands in for the kernel entry point: it reports the argument
// block it received, copies the memory map report out of the simulated boot
// volume, and terminates the simulation.
func stubKernel(fw *efitest.Firmware, addr uint64, info *handoff.BootInfo, reportFile string) {
	logger := loader.Logger()

	level.Info(logger).Log(
		"msg", "kernel entry invoked",
		"entry", addr,
		"framebuffer", info.FrameBuffer.Base,
		"resolution", info.FrameBuffer.HorizontalResolution,
		"format", info.FrameBuffer.Format,
		"acpi", info.ACPITable,
	)
	if info.MemoryMap != nil {
		level.Info(logger).Log("msg", "memory map received", "regions", info.MemoryMap.DescriptorCount(), "key", info.MemoryMap.MapKey)
	}

	if contents, ok := fw.FileContents(reportPath); ok {
		if err := os.WriteFile(reportFile, contents, 0o644); err != nil {
			level.Error(logger).Log("msg", "cannot persist report", "path", reportFile, "err", err)
			os.Exit(1)
		}
		level.Info(logger).Log("msg", "memory map report persisted", "path", reportFile)
	}

	// The simulated kernel never hands control back.
	os.Exit(0)
}
