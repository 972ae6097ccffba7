// Package console renders command output in blocks: success, error, warning,
// note and section titles.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Style writes formatted blocks to an output.
type Style struct {
	out     io.Writer
	success *color.Color
	err     *color.Color
	warning *color.Color
	note    *color.Color
	section *color.Color
}

// New returns a Style writing to out.
func New(out io.Writer) *Style {
	return &Style{
		out:     out,
		success: color.New(color.FgBlack, color.BgGreen),
		err:     color.New(color.FgWhite, color.BgRed),
		warning: color.New(color.FgBlack, color.BgYellow),
		note:    color.New(color.FgYellow),
		section: color.New(color.FgYellow, color.Bold),
	}
}

// DisableColor forces plain output regardless of the terminal.
func (s *Style) DisableColor() *Style {
	for _, c := range []*color.Color{s.success, s.err, s.warning, s.note, s.section} {
		c.DisableColor()
	}
	return s
}

func (s *Style) block(c *color.Color, label, msg string) {
	fmt.Fprintln(s.out)
	c.Fprintf(s.out, " %s %s ", label, msg) //nolint:errcheck
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out)
}

func (s *Style) Success(msg string) {
	s.block(s.success, "[OK]", msg)
}

func (s *Style) Error(msg string) {
	s.block(s.err, "[ERROR]", msg)
}

func (s *Style) Warning(msg string) {
	s.block(s.warning, "[WARNING]", msg)
}

func (s *Style) Note(msg string) {
	fmt.Fprintln(s.out)
	s.note.Fprintf(s.out, " ! [NOTE] %s", msg) //nolint:errcheck
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out)
}

// Section prints title underlined with dashes.
func (s *Style) Section(title string) {
	fmt.Fprintln(s.out)
	s.section.Fprintln(s.out, title)                         //nolint:errcheck
	s.section.Fprintln(s.out, strings.Repeat("-", len(title))) //nolint:errcheck
	fmt.Fprintln(s.out)
}

func (s *Style) Writeln(msg string) {
	fmt.Fprintln(s.out, msg)
}
