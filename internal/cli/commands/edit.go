package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/mdtables/internal/cli/output"
	"github.com/leapstack-labs/mdtables/internal/session"
	"github.com/leapstack-labs/mdtables/internal/transport"
	"github.com/spf13/cobra"
)

const editPrompt = "mdtables> "

// NewEditCommand creates the edit command.
func NewEditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <file>",
		Short: "Edit the tables of a document interactively",
		Long: `Start an interactive shell that edits the tables of one markdown document.

Each line is a command, written either as JSON in the wire format
({"command": "updateCell", "data": {"row": 0, "col": 1, "value": "x"}})
or in shorthand (updateCell row=0 col=1 value=x). Every edit is written
to the document immediately and can be reverted with undo.`,
		Example: `  # Edit README.md
  mdtables edit README.md

  # Inside the shell
  mdtables> .use 1
  mdtables> updateCell row=0 col=1 value="New value"
  mdtables> sort column=1 direction=desc
  mdtables> undo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, args[0])
		},
	}

	return cmd
}

// lineReader is the part of *readline.Instance the edit loop uses.
type lineReader interface {
	Readline() (string, error)
}

func runEdit(cmd *cobra.Command, file string) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()

	hist, err := cmdCtx.OpenHistory()
	if err != nil {
		return err
	}
	defer func() { _ = hist.Close() }()

	exportDir := cmdCtx.Cfg.ExportDir
	if exportDir == "" {
		exportDir = filepath.Dir(file)
	}
	sess, err := cmdCtx.openDocument(ctx, file, hist, session.DirPicker{Dir: exportDir})
	if err != nil {
		return err
	}

	// Setup history file (project-local)
	historyFile := filepath.Join(filepath.Dir(cmdCtx.Cfg.StatePath), "edit_history")
	if cmdCtx.Cfg.StatePath == ":memory:" {
		historyFile = ""
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          editPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newCommandCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	cmdCtx.Renderer.Printf("mdtables edit shell (%s, %d tables)\n", file, sess.TableCount())
	cmdCtx.Renderer.Println("Type .help for commands, .quit to exit")
	cmdCtx.Renderer.Println("")

	shell := newEditShell(sess, cmdCtx)
	return shell.loop(ctx, rl)
}

// editShell routes shell lines to one session.
type editShell struct {
	sess   *session.Session
	router *transport.Router
	r      *output.Renderer
	active int
}

func newEditShell(sess *session.Session, cmdCtx *CommandContext) *editShell {
	maxAttempts := cmdCtx.Cfg.GetTransportConfig().MaxAttempts
	return &editShell{
		sess:   sess,
		router: transport.NewRouter(sess, nil, maxAttempts, cmdCtx.Logger),
		r:      cmdCtx.Renderer,
	}
}

func (s *editShell) loop(ctx context.Context, in lineReader) error {
	for {
		line, err := in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, ".") {
			if quit := s.dotCommand(line); quit {
				return nil
			}
			continue
		}

		env, err := parseEditLine(line, s.active)
		if err != nil {
			s.r.Error(err.Error())
			continue
		}
		// failures are rendered from the replies
		_ = s.router.RouteEnvelope(ctx, "cli", env, transport.SenderFunc(s.render))
	}
}

// dotCommand runs a shell command and reports whether the shell should exit.
func (s *editShell) dotCommand(line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printEditHelp(s.r.Writer())

	case ".tables":
		for _, t := range s.sess.Snapshots() {
			marker := " "
			if t.Metadata.TableIndex == s.active {
				marker = "*"
			}
			s.r.Printf("%s %d: %d columns, %d rows (lines %d-%d)\n", marker, t.Metadata.TableIndex,
				t.Metadata.ColumnCount, t.Metadata.RowCount, t.Metadata.StartLine+1, t.Metadata.EndLine+1)
		}

	case ".use":
		if len(parts) < 2 {
			s.r.Error("Usage: .use <table>")
			return false
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 0 || n >= s.sess.TableCount() {
			s.r.Error(fmt.Sprintf("no table %s (document has %d)", parts[1], s.sess.TableCount()))
			return false
		}
		s.active = n
		s.showActive()

	case ".show":
		s.showActive()

	default:
		s.r.Error(fmt.Sprintf("Unknown command: %s (type .help for commands)", parts[0]))
	}
	return false
}

func (s *editShell) showActive() {
	snapshots := s.sess.Snapshots()
	if s.active >= len(snapshots) {
		s.r.Warning("document has no tables")
		return
	}
	t := snapshots[s.active]
	s.r.Table(t.Headers, t.Rows, t.Alignment)
}

// render prints one reply from the session.
func (s *editShell) render(_ context.Context, msg transport.Outbound) error {
	switch p := msg.Data.(type) {
	case transport.TableDataPayload:
		if s.active < len(p.Tables) {
			t := p.Tables[s.active]
			s.r.Table(t.Headers, t.Rows, t.Alignment)
		}
	case transport.MessagePayload:
		if msg.Command == transport.OutSuccess {
			s.r.Success(p.Message)
		} else {
			s.r.Error(p.Message)
		}
	case transport.StatusPayload:
		s.r.Warning(p.Status)
	case transport.ValidationErrorPayload:
		if p.Field != "" {
			s.r.Error(fmt.Sprintf("%s: %s", p.Field, p.Message))
		} else {
			s.r.Error(p.Message)
		}
	case transport.CellErrorPayload:
		s.r.Error(p.Error)
	}
	return nil
}

// shorthandKinds gives the JSON type of shorthand keys. Keys not listed are
// strings.
var shorthandKinds = map[string]string{
	"tableIndex":      "int",
	"row":             "int",
	"col":             "int",
	"index":           "int",
	"column":          "int",
	"fromIndex":       "int",
	"toIndex":         "int",
	"indices":         "ints",
	"forceRefresh":    "bool",
	"useRegex":        "bool",
	"caseInsensitive": "bool",
}

// parseEditLine turns a JSON message or a shorthand line into an envelope.
// Shorthand messages target the active table unless they set tableIndex, and
// sort defaults to ascending.
func parseEditLine(line string, active int) (transport.Envelope, error) {
	if strings.HasPrefix(line, "{") {
		var env transport.Envelope
		if err := json.Unmarshal([]byte(line), &env); err != nil {
			return transport.Envelope{}, fmt.Errorf("invalid message: %w", err)
		}
		return env, nil
	}

	fields, err := splitFields(line)
	if err != nil {
		return transport.Envelope{}, err
	}

	data := map[string]any{"tableIndex": active}
	for _, field := range fields[1:] {
		key, value, ok := strings.Cut(field, "=")
		if !ok || key == "" {
			return transport.Envelope{}, fmt.Errorf("expected key=value, got %q", field)
		}
		v, err := shorthandValue(key, value)
		if err != nil {
			return transport.Envelope{}, err
		}
		data[key] = v
	}
	if transport.Command(fields[0]) == transport.CmdSort {
		if _, ok := data["direction"]; !ok {
			data["direction"] = "asc"
		}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return transport.Envelope{}, err
	}
	return transport.Envelope{Command: transport.Command(fields[0]), Data: raw}, nil
}

func shorthandValue(key, value string) (any, error) {
	switch shorthandKinds[key] {
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number, got %q", key, value)
		}
		return n, nil
	case "ints":
		var out []int
		for _, part := range strings.Split(value, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, fmt.Errorf("%s must be a list of numbers, got %q", key, value)
			}
			out = append(out, n)
		}
		return out, nil
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false, got %q", key, value)
		}
		return b, nil
	}
	return value, nil
}

// splitFields splits a shorthand line on spaces. Double-quoted sections may
// contain spaces and Go escape sequences.
func splitFields(line string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inField := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			end := i + 1
			for end < len(line) && line[end] != '"' {
				if line[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(line) {
				return nil, errors.New("unterminated quote")
			}
			s, err := strconv.Unquote(line[i : end+1])
			if err != nil {
				return nil, fmt.Errorf("invalid quoted value %s: %w", line[i:end+1], err)
			}
			cur.WriteString(s)
			inField = true
			i = end
		case c == ' ' || c == '\t':
			if inField {
				fields = append(fields, cur.String())
				cur.Reset()
				inField = false
			}
		default:
			cur.WriteByte(c)
			inField = true
		}
	}
	if inField {
		fields = append(fields, cur.String())
	}
	if len(fields) == 0 {
		return nil, errors.New("empty command")
	}
	return fields, nil
}

func printEditHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .tables         List the tables of the document
  .use <n>        Make table n the active table
  .show           Print the active table
  .quit / .exit   Exit the shell

Edits (shorthand or JSON, applied to the active table):
  updateCell row=<r> col=<c> value=<text>
  updateHeader col=<c> value=<text>
  updateAlignment col=<c> alignment=left|center|right|default
  addRow [index=<r>]            deleteRow index=<r>      deleteRows indices=1,2
  addColumn [index=<c>] [header=<text>]
  deleteColumn index=<c>        deleteColumns indices=0,2
  moveRow fromIndex=<r> toIndex=<r>
  moveColumn fromIndex=<c> toIndex=<c>
  sort column=<c> [direction=asc|desc] [sortType=auto|number|date|string|natural]
  findReplace find=<text> replace=<text> [useRegex=true] [caseInsensitive=true]
  exportCSV csvContent=<csv> [filename=<name>] [encoding=<enc>]
  importCSV
  undo

Tips:
  - Quote values containing spaces: value="two words"
  - Row indices count data rows only; the header is not a row
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

// newCommandCompleter completes command names and dot-commands.
func newCommandCompleter() *readline.PrefixCompleter {
	names := []string{
		"requestTableData", "updateCell", "updateHeader", "updateAlignment",
		"addRow", "deleteRow", "deleteRows", "addColumn", "deleteColumn", "deleteColumns",
		"moveRow", "moveColumn", "sort", "findReplace", "exportCSV", "importCSV", "undo",
		".help", ".tables", ".use", ".show", ".quit", ".exit",
	}
	items := make([]readline.PrefixCompleterInterface, 0, len(names))
	for _, name := range names {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}
