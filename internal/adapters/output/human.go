package output

import (
	"errors"
	"io"

	"github.com/pterm/pterm"

	"github.com/mikey-austin/socos/internal/core"
)

// HumanPrinter prints plain lines to stdout and styled errors to stderr.
type HumanPrinter struct {
	out   io.Writer
	err   io.Writer
	color bool
}

// NewHumanPrinter returns a printer writing to out and errOut.
func NewHumanPrinter(out, errOut io.Writer, color bool) *HumanPrinter {
	if !color {
		pterm.DisableStyling()
	} else {
		pterm.EnableStyling()
	}
	return &HumanPrinter{out: out, err: errOut, color: color}
}

// Line writes one line of output.
func (p *HumanPrinter) Line(text string) error {
	_, err := io.WriteString(p.out, text+"\n")
	return err
}

// Error writes err to stderr. Usage errors print without a prefix.
func (p *HumanPrinter) Error(err error) {
	if err == nil || errors.Is(err, core.ErrExit) {
		return
	}
	var cliErr *core.CLIError
	if errors.As(err, &cliErr) && cliErr.Code == core.ExitUsage {
		pterm.Fprintln(p.err, err.Error())
		return
	}
	pterm.Error.WithWriter(p.err).Println(err.Error())
}

// Emphasize highlights text when colour is enabled.
func (p *HumanPrinter) Emphasize(text string) string {
	if !p.color {
		return text
	}
	return pterm.Bold.Sprint(text)
}

// Color reports whether styled output is enabled.
func (p *HumanPrinter) Color() bool { return p.color }
