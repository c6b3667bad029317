package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mikey-austin/socos/internal/core"
)

func TestHumanPrinterLines(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewHumanPrinter(&out, &errOut, false)
	if err := p.Line("first"); err != nil {
		t.Fatalf("line: %v", err)
	}
	if err := p.Line("second"); err != nil {
		t.Fatalf("line: %v", err)
	}
	if got := out.String(); got != "first\nsecond\n" {
		t.Fatalf("unexpected output %q", got)
	}
	if p.Emphasize("x") != "x" {
		t.Fatalf("expected no emphasis without colour")
	}
}

func TestHumanPrinterErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewHumanPrinter(&out, &errOut, false)

	p.Error(core.InvalidArgumentf("Usage: volume [+|-]"))
	if got := errOut.String(); got != "Usage: volume [+|-]\n" {
		t.Fatalf("unexpected usage error %q", got)
	}

	errOut.Reset()
	p.Error(core.WrapError(core.ErrDeviceFault, "device error", errors.New("boom")))
	if !strings.Contains(errOut.String(), "device error: boom") {
		t.Fatalf("unexpected device error %q", errOut.String())
	}

	errOut.Reset()
	p.Error(core.ErrExit)
	if errOut.Len() != 0 {
		t.Fatalf("exit should print nothing, got %q", errOut.String())
	}
	if out.Len() != 0 {
		t.Fatalf("errors must not reach stdout, got %q", out.String())
	}
}

func TestJSONPrinter(t *testing.T) {
	var out bytes.Buffer
	p := NewJSONPrinter(&out)
	if err := p.Line("hello"); err != nil {
		t.Fatalf("line: %v", err)
	}
	p.Error(core.Errorf(core.ErrNotIndexed, "not indexed"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out.String())
	}
	var line struct {
		Line string `json:"line"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &line); err != nil || line.Line != "hello" {
		t.Fatalf("unexpected line %q (%v)", lines[0], err)
	}
	var failure struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &failure); err != nil {
		t.Fatalf("decode error line: %v", err)
	}
	if failure.Error != "not indexed" || failure.Code != core.ExitNotFound {
		t.Fatalf("unexpected error line %+v", failure)
	}
}

func TestNewSelectsPrinter(t *testing.T) {
	var out bytes.Buffer
	if _, ok := New(Options{JSON: true, Out: &out}).(*JSONPrinter); !ok {
		t.Fatalf("expected json printer")
	}
	p, ok := New(Options{Out: &out, Err: &out}).(*HumanPrinter)
	if !ok {
		t.Fatalf("expected human printer")
	}
	if p.Color() {
		t.Fatalf("buffer is not a terminal; colour should be off")
	}
}
