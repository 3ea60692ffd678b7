package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"oxbow/internal/diag"
	"oxbow/internal/source"
)

type palette struct {
	err, warn, info, note, gutter, caret, path, add, del *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
		path:   color.New(color.Bold),
		add:    color.New(color.FgGreen),
		del:    color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.caret, p.path, p.add, p.del} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty renders the bag in the order of bag.Items(); call bag.Sort first
// for a stable listing. Each diagnostic is printed as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//
// followed by the source context with a ^~~~ underline, notes, fixes and,
// optionally, a before/after preview of every fix edit.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil || fs == nil {
		return
	}
	pal := newPalette(opts.Color)
	items := bag.Items()
	for i := range items {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, &items[i], fs, opts, pal)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	file := fs.Get(d.Primary.File)
	sev := pal.severity(d.Severity)
	if file == nil || d.Primary.File == 0 {
		fmt.Fprintf(w, "%s %s: %s\n", sev.Sprint(d.Severity.String()), d.Code.ID(), d.Message)
	} else {
		start, _ := fs.Resolve(d.Primary)
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			pal.path.Sprintf("%s:%d:%d", displayPath(file, opts.PathMode, opts.BaseDir), start.Line, start.Col),
			sev.Sprint(d.Severity.String()), d.Code.ID(), d.Message)
		writeContext(w, fs, file, d.Primary, opts.Context, pal)
	}

	// timing payloads are meant for tools
	if opts.ShowNotes && d.Code != diag.ObsTimings {
		for _, n := range d.Notes {
			nf := fs.Get(n.Span.File)
			if nf == nil || n.Span.File == 0 {
				fmt.Fprintf(w, "  %s %s\n", pal.note.Sprint("note:"), n.Msg)
				continue
			}
			at, _ := fs.Resolve(n.Span)
			fmt.Fprintf(w, "  %s %s:%d:%d %s\n", pal.note.Sprint("note:"),
				displayPath(nf, opts.PathMode, opts.BaseDir), at.Line, at.Col, n.Msg)
		}
	}

	if !opts.ShowFixes {
		return
	}
	for i, fix := range d.Fixes {
		fmt.Fprintf(w, "  %s %s\n", pal.note.Sprintf("fix #%d:", i+1), fix.Title)
		for _, e := range fix.Edits {
			ef := fs.Get(e.Span.File)
			if ef == nil {
				continue
			}
			at, _ := fs.Resolve(e.Span)
			fmt.Fprintf(w, "    %s:%d:%d apply=%s\n",
				displayPath(ef, opts.PathMode, opts.BaseDir), at.Line, at.Col, strconv.Quote(e.NewText))
			if !opts.ShowPreview {
				continue
			}
			pv, err := buildFixEditPreview(fs, e)
			if err != nil {
				fmt.Fprintf(w, "    preview unavailable: %v\n", err)
				continue
			}
			fmt.Fprintln(w, "    preview:")
			for _, l := range pv.before {
				fmt.Fprintf(w, "      %s\n", pal.del.Sprint("- "+l))
			}
			for _, l := range pv.after {
				fmt.Fprintf(w, "      %s\n", pal.add.Sprint("+ "+l))
			}
		}
	}
}

func writeContext(w io.Writer, fs *source.FileSet, file *source.File, span source.Span, context int8, pal palette) {
	start, end := fs.Resolve(span)
	first := start.Line
	if c := uint32(max(context, 0)); first > c {
		first -= c
	} else {
		first = 1
	}
	last := start.Line + uint32(max(context, 0))
	if total := uint32(len(file.LineIdx)) + 1; last > total {
		last = total
	}
	width := len(strconv.FormatUint(uint64(last), 10))
	blank := strings.Repeat(" ", width)

	for ln := first; ln <= last; ln++ {
		text := file.Line(ln)
		if ln != start.Line && strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(w, " %s %s\n", pal.gutter.Sprintf("%*d |", width, ln), text)
		if ln != start.Line {
			continue
		}
		endCol := end.Col
		if end.Line != start.Line {
			endCol = uint32(len(text)) + 1
		}
		fmt.Fprintf(w, " %s %s\n", pal.gutter.Sprint(blank+" |"), pal.caret.Sprint(underline(text, start.Col, endCol)))
	}
}

// underline builds the ^~~~ marker for the byte columns [from, to) of line.
// Tabs are kept so the marker lines up in a terminal; wide runes take their
// display width.
func underline(line string, from, to uint32) string {
	if from == 0 {
		from = 1
	}
	if to <= from {
		to = from + 1
	}
	var b strings.Builder
	lo, hi := int(from-1), int(to-1)
	lo = min(lo, len(line))
	for _, r := range line[:lo] {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	marked := 1
	if hi > lo && lo < len(line) {
		marked = max(runewidth.StringWidth(line[lo:min(hi, len(line))]), 1)
	}
	b.WriteByte('^')
	b.WriteString(strings.Repeat("~", marked-1))
	return b.String()
}
