package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/mdtables/internal/cli/output"
	"github.com/leapstack-labs/mdtables/internal/cli/testutil"
	"github.com/leapstack-labs/mdtables/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptReader replays lines, then returns io.EOF.
type scriptReader struct {
	lines []string
}

func (s *scriptReader) Readline() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func TestSplitFields(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    []string
		wantErr bool
	}{
		{name: "plain", line: "addRow index=1", want: []string{"addRow", "index=1"}},
		{name: "extra spaces", line: "  undo   ", want: []string{"undo"}},
		{name: "quoted", line: `updateCell value="two words" row=0`, want: []string{"updateCell", "value=two words", "row=0"}},
		{name: "escapes", line: `updateCell value="say \"hi\""`, want: []string{"updateCell", `value=say "hi"`}},
		{name: "empty quoted", line: `updateHeader value=""`, want: []string{"updateHeader", "value="}},
		{name: "unterminated", line: `updateCell value="oops`, wantErr: true},
		{name: "blank", line: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := splitFields(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEditLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		active   int
		wantCmd  transport.Command
		wantData map[string]any
		wantErr  string
	}{
		{
			name:     "shorthand uses active table",
			line:     "updateCell row=1 col=0 value=Bob",
			active:   2,
			wantCmd:  transport.CmdUpdateCell,
			wantData: map[string]any{"tableIndex": float64(2), "row": float64(1), "col": float64(0), "value": "Bob"},
		},
		{
			name:     "numeric text stays a string",
			line:     "updateCell row=0 col=1 value=42",
			wantCmd:  transport.CmdUpdateCell,
			wantData: map[string]any{"tableIndex": float64(0), "row": float64(0), "col": float64(1), "value": "42"},
		},
		{
			name:     "index list and bool",
			line:     "deleteRows indices=2,0 tableIndex=1",
			wantCmd:  transport.CmdDeleteRows,
			wantData: map[string]any{"tableIndex": float64(1), "indices": []any{float64(2), float64(0)}},
		},
		{
			name:     "bool flag",
			line:     "findReplace find=a replace=b caseInsensitive=true",
			wantCmd:  transport.CmdFindReplace,
			wantData: map[string]any{"tableIndex": float64(0), "find": "a", "replace": "b", "caseInsensitive": true},
		},
		{
			name:     "sort defaults to ascending",
			line:     "sort column=1",
			wantCmd:  transport.CmdSort,
			wantData: map[string]any{"tableIndex": float64(0), "column": float64(1), "direction": "asc"},
		},
		{
			name:     "sort keeps explicit direction",
			line:     "sort column=0 direction=desc",
			wantCmd:  transport.CmdSort,
			wantData: map[string]any{"tableIndex": float64(0), "column": float64(0), "direction": "desc"},
		},
		{
			name:     "json passes through",
			line:     `{"command":"addRow","data":{"tableIndex":3}}`,
			wantCmd:  transport.CmdAddRow,
			wantData: map[string]any{"tableIndex": float64(3)},
		},
		{name: "bad number", line: "deleteRow index=first", wantErr: "index must be a number"},
		{name: "missing equals", line: "deleteRow 3", wantErr: "expected key=value"},
		{name: "bad json", line: `{"command":`, wantErr: "invalid message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := parseEditLine(tt.line, tt.active)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCmd, env.Command)

			var data map[string]any
			require.NoError(t, json.Unmarshal(env.Data, &data))
			assert.Equal(t, tt.wantData, data)
		})
	}
}

func TestEditShell_Loop(t *testing.T) {
	dir := setupProject(t, "")
	doc := filepath.Join(dir, "team.md")

	cmdCtx := NewCommandContext(NewEditCommand())
	hist, err := cmdCtx.OpenHistory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = hist.Close() })

	sess, err := cmdCtx.openDocument(t.Context(), doc, hist, nil)
	require.NoError(t, err)

	out := new(bytes.Buffer)
	cmdCtx.Renderer = output.NewRendererWithTTY(out, out, false, output.ModeMarkdown)
	shell := newEditShell(sess, cmdCtx)

	script := &scriptReader{lines: []string{
		"# comments are ignored",
		".tables",
		`updateCell row=0 col=0 value="John Smith"`,
		"deleteRow index=9",
		"sort column=1",
		"bogus",
		".use 4",
		"undo",
		".quit",
		"addRow",
	}}
	require.NoError(t, shell.loop(t.Context(), script))

	text := out.String()
	assert.Contains(t, text, "* 0: 2 columns, 3 rows (lines 3-7)")
	assert.Contains(t, text, "| John Smith | 25 |")
	assert.Contains(t, text, "row index 9 out of range")
	assert.Contains(t, text, "| Al | 7 |\n| John Smith | 25 |\n| Jane | 30 |")
	assert.Contains(t, text, "unknown command")
	assert.Contains(t, text, "no table 4")
	assert.Contains(t, text, "Undid: Sort by column 1")
	assert.Equal(t, []string{"addRow"}, script.lines, "lines after .quit are not read")

	content := testutil.ReadFile(t, doc)
	assert.Contains(t, content, "| John Smith | 25 |\n| Jane | 30 |\n| Al | 7 |")
}
