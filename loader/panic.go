package loader

import (
	"github.com/go-kit/log"
)

var (
	logger log.Logger = log.NewNopLogger()

	// haltFn is swapped by SetHaltHandler and mocked by tests.
	haltFn = hang

	errRuntimePanic = &Error{Module: "rt", Message: "unknown cause"}
)

// SetLogger installs the logger used for diagnostic output. In a firmware
// build the logger wraps the console-out writer; the hosted simulator wraps
// stderr. Passing nil restores the no-op logger.
func SetLogger(l log.Logger) {
	if l == nil {
		l = log.NewNopLogger()
	}
	logger = l
}

// Logger returns the currently installed logger.
func Logger() log.Logger {
	return logger
}

// SetHaltHandler overrides the action taken once the loader reaches a fatal
// state. The default handler spins forever, which is the only safe behavior
// once firmware services may be gone. The hosted simulator installs an
// os.Exit handler instead.
func SetHaltHandler(fn func()) {
	if fn == nil {
		fn = hang
	}
	haltFn = fn
}

// Halt stops all further execution. It is called directly (without any
// diagnostic output) on the post-handoff return path where no output channel
// can be assumed usable.
func Halt() {
	haltFn()
}

// Panic outputs the supplied error (if not nil) and halts. Calls to Panic
// never return under the default halt handler. Every non-transient failure
// in the loader routes through here.
func Panic(e interface{}) {
	var err *Error

	switch t := e.(type) {
	case *Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	if err != nil {
		logger.Log("module", err.Module, "unrecoverable", err.Message)
	}
	logger.Log("msg", "loader panic: system halted")

	haltFn()
}

func hang() {
	for {
	}
}
