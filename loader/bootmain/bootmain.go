// Package bootmain drives the kernel hand-off pipeline: capture the memory
// map, persist the report, read and parse the kernel image, reserve and fill
// its physical range, leave the firmware environment and jump to the kernel
// entry point. Boot either transfers control for good or halts; it is the
// top of the loader process and returns to no caller.
package bootmain

import (
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/smallkirby/zakuro-os/efi"
	"github.com/smallkirby/zakuro-os/loader"
	"github.com/smallkirby/zakuro-os/loader/elfload"
	"github.com/smallkirby/zakuro-os/loader/handoff"
	"github.com/smallkirby/zakuro-os/report"
)

const (
	defaultKernelPath = `\kernel.elf`
	defaultReportPath = `\memmap`

	// Four pages of raw descriptors is enough headroom for every
	// firmware inventory seen in practice.
	defaultMapBufferSize = 4 * 4096
)

var (
	errOpenVolume     = &loader.Error{Module: "bootmain", Message: "could not open the boot volume"}
	errCreateReport   = &loader.Error{Module: "bootmain", Message: "could not create the memory map report file"}
	errWriteReport    = &loader.Error{Module: "bootmain", Message: "could not write the memory map report"}
	errGraphicsMode   = &loader.Error{Module: "bootmain", Message: "could not query the graphics mode"}
	errOpenKernel     = &loader.Error{Module: "bootmain", Message: "could not open the kernel image file"}
	errKernelSize     = &loader.Error{Module: "bootmain", Message: "could not query the kernel image size"}
	errAllocKernelBuf = &loader.Error{Module: "bootmain", Message: "could not allocate the kernel image buffer"}
	errReadKernel     = &loader.Error{Module: "bootmain", Message: "could not read the kernel image"}
	errReservePages   = &loader.Error{Module: "bootmain", Message: "could not reserve the kernel load range"}
	errFreeKernelBuf  = &loader.Error{Module: "bootmain", Message: "could not release the kernel image buffer"}
	errBootReturned   = &loader.Error{Module: "bootmain", Message: "Boot returned"}
)

// Config carries the collaborators of the pipeline. Firmware and Memory are
// mandatory; everything else has a usable default.
type Config struct {
	// Firmware supplies the capability interface of the hosting
	// environment.
	Firmware efi.BootServices

	// Memory gives write access to the physical load range.
	Memory efi.Memory

	// Profile selects the argument-block shape of the entry contract.
	Profile handoff.Profile

	// Logger receives diagnostic output. When nil, a logfmt logger over
	// the firmware console sink is used.
	Logger log.Logger

	// KernelPath and ReportPath name the kernel image and the memory map
	// report on the boot volume.
	KernelPath string
	ReportPath string

	// MapBuffer receives memory map captures. The gate never grows it;
	// undersized buffers fail the capture.
	MapBuffer []byte

	// MakeEntry builds the kernel entry invocation for a resident entry
	// address. The default jumps to the address directly; the simulator
	// injects a stub kernel here.
	MakeEntry func(addr uint64) handoff.KernelEntry
}

func (cfg *Config) applyDefaults() {
	if cfg.KernelPath == "" {
		cfg.KernelPath = defaultKernelPath
	}
	if cfg.ReportPath == "" {
		cfg.ReportPath = defaultReportPath
	}
	if cfg.MapBuffer == nil {
		cfg.MapBuffer = make([]byte, defaultMapBufferSize)
	}
	if cfg.MakeEntry == nil {
		cfg.MakeEntry = handoff.EntryAt
	}
}

// Boot runs the hand-off pipeline. It never returns: control either passes
// to the kernel entry point or the loader halts on a fatal condition.
func Boot(cfg Config) {
	cfg.applyDefaults()
	fw := cfg.Firmware

	if cfg.Logger == nil {
		cfg.Logger = log.NewLogfmtLogger(fw.ConsoleOut())
	}
	loader.SetLogger(cfg.Logger)
	logger := cfg.Logger

	mmap := &efi.MemoryMap{Buffer: cfg.MapBuffer}
	gate := handoff.NewGate(fw, mmap)
	if err := gate.Capture(); err != nil {
		loader.Panic(err)
	}

	// Persist the memory map report while file services are still up.
	vol, st := fw.OpenVolume()
	if st != efi.Success {
		level.Error(logger).Log("msg", "open volume failed", "status", st)
		loader.Panic(errOpenVolume)
	}
	saveReport(vol, cfg.ReportPath, mmap)
	level.Info(logger).Log("msg", "saved memory map report", "path", cfg.ReportPath, "regions", mmap.DescriptorCount())

	// The graphics mode and the platform table must be captured before
	// the exit gate: their sources are not queryable afterwards.
	mode, st := fw.GraphicsMode()
	if st != efi.Success {
		level.Error(logger).Log("msg", "graphics mode query failed", "status", st)
		loader.Panic(errGraphicsMode)
	}
	level.Info(logger).Log(
		"msg", "graphics mode",
		"width", mode.HorizontalResolution,
		"height", mode.VerticalResolution,
		"format", mode.PixelFormat,
		"stride", mode.PixelsPerScanLine,
		"framebuffer", mode.FrameBufferBase,
		"size", mode.FrameBufferSize,
	)

	fb, ferr := handoff.NewFrameBufferConfig(mode)
	if ferr != nil {
		level.Error(logger).Log("msg", "unsupported pixel format", "format", mode.PixelFormat)
		loader.Panic(ferr)
	}

	acpiTable, ok := efi.FindConfigTable(fw.ConfigurationTable(), efi.ACPITableGUID)
	if !ok {
		// Valid absence; the kernel receives a null pointer.
		level.Info(logger).Log("msg", "no ACPI table entry in the configuration table")
	}

	// Read the whole kernel image into a pool buffer. The buffer lives
	// only until the segments are resident.
	img, kernelBuf := readKernelImage(fw, vol, cfg.KernelPath)

	first, last, lerr := img.LoadRange()
	if lerr != nil {
		loader.Panic(lerr)
	}

	if st := fw.AllocatePages(first, elfload.PagesFor(last-first)); st != efi.Success {
		level.Error(logger).Log("msg", "page reservation failed", "status", st, "first", first, "last", last)
		loader.Panic(errReservePages)
	}

	if cerr := elfload.CopySegments(img, cfg.Memory); cerr != nil {
		loader.Panic(cerr)
	}
	level.Info(logger).Log("msg", "kernel loaded", "first", first, "last", last, "entry", img.Entry)

	entryAddr := img.Entry
	if st := fw.FreePool(kernelBuf); st != efi.Success {
		level.Error(logger).Log("msg", "kernel buffer release failed", "status", st)
		loader.Panic(errFreeKernelBuf)
	}

	if err := gate.Exit(); err != nil {
		loader.Panic(err)
	}

	info := handoff.BuildBootInfo(cfg.Profile, fb, mmap, acpiTable)
	handoff.Transfer(cfg.MakeEntry(entryAddr), info)

	// Transfer halts if the entry returns; reaching this point means the
	// halt handler itself returned.
	loader.Panic(errBootReturned)
}

// saveReport writes the memory map report to the named file on the boot
// volume. Report failures are fatal: a boot that cannot leave its map
// behind is not diagnosable after the fact.
func saveReport(vol efi.Volume, path string, mmap *efi.MemoryMap) {
	logger := loader.Logger()

	file, st := vol.Open(path, efi.ModeRead|efi.ModeWrite|efi.ModeCreate)
	if st != efi.Success {
		level.Error(logger).Log("msg", "create report file failed", "path", path, "status", st)
		loader.Panic(errCreateReport)
	}

	if err := report.Write(file, mmap); err != nil {
		level.Error(logger).Log("msg", "write report failed", "path", path, "err", err)
		loader.Panic(errWriteReport)
	}
	file.Close()
}

// readKernelImage opens, sizes, reads and parses the kernel image. The
// returned pool buffer backs the parsed image and must be freed once the
// segments have been copied.
func readKernelImage(fw efi.BootServices, vol efi.Volume, path string) (*elfload.Image, []byte) {
	logger := loader.Logger()

	file, st := vol.Open(path, efi.ModeRead)
	if st != efi.Success {
		level.Error(logger).Log("msg", "open kernel file failed", "path", path, "status", st)
		loader.Panic(errOpenKernel)
	}

	size, st := file.Size()
	if st != efi.Success {
		level.Error(logger).Log("msg", "kernel size query failed", "path", path, "status", st)
		loader.Panic(errKernelSize)
	}

	buf, st := fw.AllocatePool(size)
	if st != efi.Success {
		level.Error(logger).Log("msg", "kernel buffer allocation failed", "size", size, "status", st)
		loader.Panic(errAllocKernelBuf)
	}

	if _, err := io.ReadFull(file, buf); err != nil {
		level.Error(logger).Log("msg", "kernel read failed", "path", path, "err", err)
		loader.Panic(errReadKernel)
	}
	file.Close()

	img, perr := elfload.ParseImage(buf)
	if perr != nil {
		loader.Panic(perr)
	}

	return img, buf
}
