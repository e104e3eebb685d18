// Package output renders command results for terminals, scripts and agents.
//
// In auto mode a terminal gets styled text and anything else gets markdown,
// which reads well both in pipes and in agent transcripts.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"

	"github.com/leapstack-labs/mdtables/pkg/core"
)

// OutputMode selects the output format.
type OutputMode string

// Output modes.
const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
)

// Modes lists the accepted output modes.
func Modes() []string {
	return []string{string(ModeAuto), string(ModeText), string(ModeMarkdown), string(ModeJSON)}
}

// Mode converts a configuration value into an OutputMode. Unknown values
// select auto.
func Mode(s string) OutputMode {
	switch OutputMode(strings.ToLower(s)) {
	case ModeText:
		return ModeText
	case ModeMarkdown, "md":
		return ModeMarkdown
	case ModeJSON:
		return ModeJSON
	}
	return ModeAuto
}

// Renderer writes command output in one mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	isTTY  bool
	mode   OutputMode
	styles *Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode OutputMode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode OutputMode) *Renderer {
	r := &Renderer{out: out, errOut: errOut, isTTY: isTTY, mode: mode}
	if r.EffectiveMode() == ModeText && isTTY {
		r.styles = DefaultStyles()
	} else {
		r.styles = PlainStyles()
	}
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// EffectiveMode resolves auto into text or markdown.
func (r *Renderer) EffectiveMode() OutputMode {
	if r.mode != ModeAuto && r.mode != "" {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Styles returns the active styles.
func (r *Renderer) Styles() *Styles { return r.styles }

// Writer returns the standard output writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// Println writes a line.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a heading of the given level.
func (r *Renderer) Header(level int, title string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatHeader(level, title))
		return
	}
	style := r.styles.Header1
	if level > 1 {
		style = r.styles.Header2
	}
	r.Println(style.Render(title))
}

// Success writes a success message.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render(r.symbol("✓", "[ok]") + " " + msg))
}

// Warning writes a warning to the error stream.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render(r.symbol("!", "[warn]")+" "+msg))
}

// Error writes an error to the error stream.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render(r.symbol("✗", "[error]")+" "+msg))
}

// Muted renders s in the muted style.
func (r *Renderer) Muted(s string) string {
	return r.styles.Muted.Render(s)
}

// StatusLine writes one item with a status: success, warning, error or skipped.
func (r *Renderer) StatusLine(name, status, detail string) {
	var mark string
	switch status {
	case "success":
		mark = r.styles.Success.Render(r.symbol("✓", "[ok]"))
	case "warning":
		mark = r.styles.Warning.Render(r.symbol("!", "[warn]"))
	case "error":
		mark = r.styles.Error.Render(r.symbol("✗", "[error]"))
	default:
		mark = r.styles.Muted.Render(r.symbol("-", "[skip]"))
	}
	line := mark + " " + name
	if detail != "" {
		line += " " + r.Muted("("+detail+")")
	}
	r.Println(line)
}

func (r *Renderer) symbol(tty, plain string) string {
	if r.EffectiveMode() == ModeMarkdown {
		return plain
	}
	return tty
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table writes a grid. Markdown mode emits a pipe table; text mode draws a
// box table honoring column alignment.
func (r *Renderer) Table(headers []string, rows [][]string, alignment []core.Alignment) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatTable(headers, rows, alignment))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	// Headers are user content; keep their case
	t.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	t.AppendHeader(header)

	configs := make([]table.ColumnConfig, 0, len(alignment))
	for i, a := range alignment {
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: textAlign(a)})
	}
	t.SetColumnConfigs(configs)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		t.AppendRow(tr)
	}
	t.Render()
}

func textAlign(a core.Alignment) text.Align {
	switch a {
	case core.AlignCenter:
		return text.AlignCenter
	case core.AlignRight:
		return text.AlignRight
	}
	return text.AlignLeft
}
