package output

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Printer renders command output line by line and reports failures.
type Printer interface {
	Line(text string) error
	Error(err error)
}

// Options select and configure a printer.
type Options struct {
	JSON    bool
	NoColor bool
	Out     io.Writer
	Err     io.Writer
}

// New builds the printer selected by opts.
func New(opts Options) Printer {
	out, errOut := opts.Out, opts.Err
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	if opts.JSON {
		return NewJSONPrinter(out)
	}
	return NewHumanPrinter(out, errOut, !opts.NoColor && IsTerminal(out))
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
