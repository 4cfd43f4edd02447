// Package ui formats command output for a terminal. Colors are only emitted
// when the destination is a terminal and NO_COLOR is unset.
package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"
)

const banner = `
  ┌─┐┌─┐┌─┐┌─┐┬─┐┌─┐┌─┐┌─┐┬─┐
  ├┤ ├─┤└─┐│  ├┬┘├─┤├─┘├┤ ├┬┘
  └  ┴ ┴└─┘└─┘┴└─┴ ┴┴  └─┘┴└─
`

const (
	cyan    = "\033[36m"
	yellow  = "\033[33m"
	red     = "\033[31m"
	green   = "\033[32m"
	magenta = "\033[35m"
	dim     = "\033[2m"
	reset   = "\033[0m"
)

// Printer writes labelled, optionally colored lines
type Printer struct {
	out   io.Writer
	color bool
	quiet bool
}

// NewPrinter writes to out, coloring only when out is a terminal
func NewPrinter(out io.Writer) *Printer {
	color := false
	if f, ok := out.(*os.File); ok && os.Getenv("NO_COLOR") == "" {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Printer{out: out, color: color}
}

// Stdout is a Printer for standard output
func Stdout() *Printer {
	return NewPrinter(os.Stdout)
}

// SetColor forces colors on or off
func (p *Printer) SetColor(on bool) {
	p.color = on
}

// SetQuiet suppresses everything except errors and Raw output
func (p *Printer) SetQuiet(on bool) {
	p.quiet = on
}

func (p *Printer) paint(code, text string) string {
	if !p.color {
		return text
	}
	return code + text + reset
}

// Banner prints the program banner
func (p *Printer) Banner() {
	if p.quiet {
		return
	}
	fmt.Fprint(p.out, p.paint(cyan, banner))
}

// Error prints msg and, when given, its cause
func (p *Printer) Error(msg string, cause ...interface{}) {
	if len(cause) > 0 && cause[0] != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause[0])
	}
	fmt.Fprintln(p.out, p.paint(red, msg))
}

// Warning prints msg in yellow
func (p *Printer) Warning(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.paint(yellow, msg))
}

// Success prints msg in green
func (p *Printer) Success(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.paint(green, msg))
}

// Highlight prints a section heading
func (p *Printer) Highlight(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.paint(magenta, msg))
}

// Info prints "label: value"
func (p *Printer) Info(label, value string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, "%s: %s\n", p.paint(cyan, label), p.paint(yellow, value))
}

// Dim prints a de-emphasized line
func (p *Printer) Dim(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, p.paint(dim, msg))
}

// Raw prints a line unconditionally and uncolored, for machine-readable
// output such as submission ids.
func (p *Printer) Raw(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Field is one labelled row of a Fields block
type Field struct {
	Label string
	Value string
}

// Fields prints rows with their labels aligned
func (p *Printer) Fields(rows []Field) {
	width := 0
	for _, r := range rows {
		if len(r.Label) > width {
			width = len(r.Label)
		}
	}
	for _, r := range rows {
		label := r.Label + ":" + strings.Repeat(" ", width-len(r.Label))
		fmt.Fprintf(p.out, "%s %s\n", p.paint(cyan, label), r.Value)
	}
}

// Map prints a string map as sorted Fields; empty values print as "-"
func (p *Printer) Map(values map[string]string) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]Field, 0, len(keys))
	for _, k := range keys {
		v := values[k]
		if v == "" {
			v = "-"
		}
		rows = append(rows, Field{Label: k, Value: v})
	}
	p.Fields(rows)
}
