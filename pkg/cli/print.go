package cli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/pylift/pylift/internal/diagnostics"
)

const (
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiBold   = "\x1b[1m"
	ansiReset  = "\x1b[0m"
)

// printer writes diagnostics to stderr, colored when it is a terminal.
type printer struct {
	color bool
}

func useColor(opts *Options) bool {
	if opts.NoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p printer) printAll(ds []*diagnostics.Diagnostic) {
	for _, d := range ds {
		p.print(d)
	}
	if n := countErrors(ds); n > 0 {
		fmt.Fprintf(os.Stderr, "%d error(s)\n", n)
	}
}

func (p printer) print(d *diagnostics.Diagnostic) {
	if !p.color {
		fmt.Fprintln(os.Stderr, d.Error())
		return
	}
	tint := ansiYellow
	if d.Severity == diagnostics.SeverityError {
		tint = ansiRed
	}
	file := d.File
	if file == "" {
		file = "<input>"
	}
	fmt.Fprintf(os.Stderr, "%s[%s]%s %s%s:%d:%d%s %s%s%s: %s\n",
		ansiBold, d.Code, ansiReset,
		ansiBold, file, d.Span.Line, d.Span.Column, ansiReset,
		tint, d.Severity, ansiReset, d.Message)
}

func countErrors(ds []*diagnostics.Diagnostic) int {
	n := 0
	for _, d := range ds {
		if d.Severity == diagnostics.SeverityError {
			n++
		}
	}
	return n
}
