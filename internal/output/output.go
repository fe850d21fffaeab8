// Package output renders search results, run summaries, and errors for
// the terminal. Colors are applied only when writing to a TTY.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/everfind/everfind/internal/engine"
	"github.com/everfind/everfind/internal/errors"
	"github.com/everfind/everfind/internal/search"
)

// Options configures a Printer.
type Options struct {
	// MaxLineLength truncates displayed lines longer than this.
	// Zero means no truncation.
	MaxLineLength int
	// Highlight colors the matched text. Ignored when the writer is
	// not a terminal.
	Highlight bool
	// ForceColor enables color regardless of TTY detection, for tests.
	ForceColor bool
}

// Printer writes formatted search output. It is driven from the single
// aggregator goroutine, so it needs no locking.
type Printer struct {
	out      io.Writer
	opts     Options
	useColor bool
	lastPath string
	pathFmt  func(a ...interface{}) string
	lineFmt  func(a ...interface{}) string
	matchFmt func(a ...interface{}) string
	faintFmt func(a ...interface{}) string
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer, opts Options) *Printer {
	p := &Printer{out: out, opts: opts}
	p.useColor = opts.ForceColor || isTerminal(out)
	if p.useColor {
		path := color.New(color.FgMagenta)
		line := color.New(color.FgGreen)
		match := color.New(color.FgRed, color.Bold)
		faint := color.New(color.Faint)
		if opts.ForceColor {
			// The color package disables itself off-TTY.
			for _, c := range []*color.Color{path, line, match, faint} {
				c.EnableColor()
			}
		}
		p.pathFmt = path.SprintFunc()
		p.lineFmt = line.SprintFunc()
		p.matchFmt = match.SprintFunc()
		p.faintFmt = faint.SprintFunc()
	} else {
		p.pathFmt = fmt.Sprint
		p.lineFmt = fmt.Sprint
		p.matchFmt = fmt.Sprint
		p.faintFmt = fmt.Sprint
	}
	return p
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Result prints one match with its context lines in grep style:
// matched lines use "path:line:" and context lines use "path-line-".
// A blank line separates output for different files.
func (p *Printer) Result(r search.Result) {
	if p.lastPath != "" && p.lastPath != r.Path {
		_, _ = fmt.Fprintln(p.out)
	}
	p.lastPath = r.Path

	for i, line := range r.ContextBefore {
		n := r.LineNumber - len(r.ContextBefore) + i
		p.contextLine(r.Path, n, line)
	}

	matched := p.renderMatch(r)
	_, _ = fmt.Fprintf(p.out, "%s:%s:%s\n", p.pathFmt(r.Path), p.lineFmt(r.LineNumber), matched)

	for i, line := range r.ContextAfter {
		p.contextLine(r.Path, r.LineNumber+1+i, line)
	}
}

func (p *Printer) contextLine(path string, n int, line string) {
	_, _ = fmt.Fprintf(p.out, "%s-%s-%s\n", p.pathFmt(path), p.lineFmt(n), p.faintFmt(p.truncate(line)))
}

// renderMatch highlights the first occurrence of the matched text.
func (p *Printer) renderMatch(r search.Result) string {
	line := p.truncate(r.Line)
	if !p.opts.Highlight || !p.useColor || r.MatchedText == "" {
		return line
	}
	idx := strings.Index(line, r.MatchedText)
	if idx < 0 {
		// The match was truncated away.
		return line
	}
	end := idx + len(r.MatchedText)
	return line[:idx] + p.matchFmt(line[idx:end]) + line[end:]
}

func (p *Printer) truncate(line string) string {
	max := p.opts.MaxLineLength
	if max <= 0 || len(line) <= max {
		return line
	}
	// Back up to a rune boundary so the cut never splits a multi-byte
	// character.
	cut := max
	for cut > 0 && !utf8.RuneStart(line[cut]) {
		cut--
	}
	return line[:cut] + "..."
}

// Summary prints the final counts of a completed run.
func (p *Printer) Summary(s engine.Summary) {
	_, _ = fmt.Fprintln(p.out)
	_, _ = fmt.Fprintf(p.out, "%d matches in %d files (%d files scanned, %d searched) in %s\n",
		s.TotalMatches, s.MatchedFiles, s.TotalFiles, s.ProcessedFiles,
		s.Duration.Round(time.Millisecond))
	if s.CPU.Throttling {
		_, _ = fmt.Fprintf(p.out, "search was throttled: %s\n", s.CPU)
	}
}

// ErrorSummary prints the recovered-error summary when any were logged.
func (p *Printer) ErrorSummary(summary string) {
	if summary == "" {
		return
	}
	_, _ = fmt.Fprintln(p.out, p.faintFmt(summary))
}

// Error prints a fatal error with its hint and code.
func (p *Printer) Error(err error) {
	_, _ = fmt.Fprint(p.out, errors.FormatForCLI(err))
}
