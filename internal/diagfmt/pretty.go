package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"irkit/internal/diag"
)

type palette struct {
	err, warn, info, code, loc, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgCyan, color.Bold),
		code: color.New(color.Bold),
		loc:  color.New(color.FgBlue),
		note: color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.loc, p.note} {
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
	default:
		return p.info
	}
}

// Pretty writes bag.Items() (sorted beforehand by the caller) as
//
//	ERROR VAL2001: message
//	  --> module:@func %block #3
//	  = note: ...
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		fmt.Fprintf(w, "%s %s: %s\n",
			p.severity(d.Severity).Sprint(d.Severity.String()),
			p.code.Sprint(d.Code.ID()),
			d.Message)
		if loc := d.Primary.String(); loc != "" {
			fmt.Fprintf(w, "  --> %s\n", p.loc.Sprint(loc))
		}
		if opts.ShowTitle {
			fmt.Fprintf(w, "  = %s\n", d.Code.Title())
		}
		if opts.ShowNotes {
			for _, n := range d.Notes {
				fmt.Fprintf(w, "  = %s %s\n", p.note.Sprint("note:"), n.Msg)
			}
		}
	}
}

// Short writes one uncoloured line per diagnostic:
// "module:@func %block: ERROR VAL2001: message".
func Short(w io.Writer, bag *diag.Bag) {
	for _, d := range bag.Items() {
		fmt.Fprintf(w, "%s: %s %s: %s\n", d.Primary.String(), d.Severity.String(), d.Code.ID(), d.Message)
	}
}
