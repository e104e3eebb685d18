package commands

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/mdtables/internal/cli/output"
	"github.com/leapstack-labs/mdtables/pkg/core"
	"github.com/spf13/cobra"
)

// DocumentSummary describes one markdown document for list output.
type DocumentSummary struct {
	URI    string `json:"uri"`
	Tables int    `json:"tables"`
	Error  string `json:"error,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List markdown documents and their tables",
		Long: `List all markdown documents below the root with the number of tables each contains.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # List documents (auto-detect output format)
  mdtables list

  # List documents below another directory as JSON
  mdtables list --root docs --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	if err := cmdCtx.Cfg.ValidateDirectories(); err != nil {
		return err
	}

	docs, err := collectDocuments(cmd, cmdCtx)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(docs)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Documents (%d total)", len(docs))))
		r.Println("")
	default:
		r.Header(1, fmt.Sprintf("Documents (%d total)", len(docs)))
	}

	if len(docs) == 0 {
		r.Println("No markdown documents found.")
		return nil
	}

	rows := make([][]string, 0, len(docs))
	for _, d := range docs {
		tables := strconv.Itoa(d.Tables)
		if d.Error != "" {
			tables = "error: " + d.Error
		}
		rows = append(rows, []string{d.URI, tables})
	}
	r.Table([]string{"Document", "Tables"}, rows, []core.Alignment{core.AlignLeft, core.AlignRight})
	return nil
}

func collectDocuments(cmd *cobra.Command, cmdCtx *CommandContext) ([]DocumentSummary, error) {
	ctx := cmd.Context()
	uris, err := cmdCtx.Store.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	manager, err := cmdCtx.NewManager(nil, nil)
	if err != nil {
		return nil, err
	}

	docs := make([]DocumentSummary, 0, len(uris))
	for _, uri := range uris {
		d := DocumentSummary{URI: uri}
		n, err := manager.TableCount(ctx, uri)
		if err != nil {
			cmdCtx.Logger.Warn("failed to read document", "uri", uri, "error", err)
			d.Error = err.Error()
		}
		d.Tables = n
		docs = append(docs, d)
	}
	return docs, nil
}
