package loader

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/go-kit/log"
)

func TestPanic(t *testing.T) {
	defer func() {
		haltFn = hang
		logger = log.NewNopLogger()
	}()

	var haltCalled bool
	SetHaltHandler(func() { haltCalled = true })

	t.Run("with *Error", func(t *testing.T) {
		haltCalled = false
		var buf bytes.Buffer
		SetLogger(log.NewLogfmtLogger(&buf))

		Panic(&Error{Module: "test", Message: "panic test"})

		out := buf.String()
		if !strings.Contains(out, "module=test") || !strings.Contains(out, `unrecoverable="panic test"`) {
			t.Fatalf("unexpected panic output: %q", out)
		}
		if !strings.Contains(out, "loader panic: system halted") {
			t.Fatalf("expected halt banner in output: %q", out)
		}
		if !haltCalled {
			t.Fatal("expected the halt handler to be called by Panic")
		}
	})

	t.Run("with error", func(t *testing.T) {
		haltCalled = false
		var buf bytes.Buffer
		SetLogger(log.NewLogfmtLogger(&buf))

		Panic(errors.New("go error"))

		out := buf.String()
		if !strings.Contains(out, "module=rt") || !strings.Contains(out, `unrecoverable="go error"`) {
			t.Fatalf("unexpected panic output: %q", out)
		}
		if !haltCalled {
			t.Fatal("expected the halt handler to be called by Panic")
		}
	})

	t.Run("with string", func(t *testing.T) {
		haltCalled = false
		var buf bytes.Buffer
		SetLogger(log.NewLogfmtLogger(&buf))

		Panic("string error")

		out := buf.String()
		if !strings.Contains(out, "module=rt") || !strings.Contains(out, `unrecoverable="string error"`) {
			t.Fatalf("unexpected panic output: %q", out)
		}
		if !haltCalled {
			t.Fatal("expected the halt handler to be called by Panic")
		}
	})

	t.Run("without error", func(t *testing.T) {
		haltCalled = false
		var buf bytes.Buffer
		SetLogger(log.NewLogfmtLogger(&buf))

		Panic(nil)

		if out := buf.String(); !strings.Contains(out, "loader panic: system halted") {
			t.Fatalf("expected halt banner in output: %q", out)
		}
		if !haltCalled {
			t.Fatal("expected the halt handler to be called by Panic")
		}
	})
}

func TestSetHaltHandlerNilRestoresDefault(t *testing.T) {
	defer func() { haltFn = hang }()

	SetHaltHandler(func() {})
	SetHaltHandler(nil)

	if haltFn == nil {
		t.Fatal("expected a non-nil halt handler after SetHaltHandler(nil)")
	}
}

func TestSetLoggerNilRestoresNop(t *testing.T) {
	defer func() { logger = log.NewNopLogger() }()

	SetLogger(nil)
	if Logger() == nil {
		t.Fatal("expected a non-nil logger after SetLogger(nil)")
	}
}
