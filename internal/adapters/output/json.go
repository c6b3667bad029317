package output

import (
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/mikey-austin/socos/internal/core"
)

// JSONPrinter writes newline-delimited JSON objects, one per output line.
type JSONPrinter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

type jsonLine struct {
	Line string `json:"line"`
}

type jsonError struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// NewJSONPrinter returns a printer writing to out.
func NewJSONPrinter(out io.Writer) *JSONPrinter {
	return &JSONPrinter{enc: json.NewEncoder(out)}
}

// Line writes {"line": text}.
func (p *JSONPrinter) Line(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enc.Encode(jsonLine{Line: text})
}

// Error writes {"error": msg, "code": n} to the same stream.
func (p *JSONPrinter) Error(err error) {
	if err == nil || errors.Is(err, core.ErrExit) {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.enc.Encode(jsonError{Error: err.Error(), Code: core.ExitCode(err)})
}
