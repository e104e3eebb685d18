package commands

import (
	"fmt"

	"github.com/leapstack-labs/mdtables/internal/cli/output"
	"github.com/leapstack-labs/mdtables/pkg/core"
	"github.com/spf13/cobra"
)

// ShowOptions holds options for the show command.
type ShowOptions struct {
	Table int
}

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	opts := &ShowOptions{}

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Show the tables of a markdown document",
		Long: `Parse a markdown document and print its tables.

Every table is shown with its position in the document. Use --table to
show a single table by its 0-based index.`,
		Example: `  # Show every table in README.md
  mdtables show README.md

  # Show the second table as JSON
  mdtables show README.md --table 1 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.Table, "table", -1, "Index of the table to show (default: all)")

	return cmd
}

func runShow(cmd *cobra.Command, file string, opts *ShowOptions) error {
	cmdCtx := NewCommandContext(cmd)
	sess, err := cmdCtx.openDocument(cmd.Context(), file, nil, nil)
	if err != nil {
		return err
	}

	tables := sess.Snapshots()
	if opts.Table >= 0 {
		if opts.Table >= len(tables) {
			return &core.PositionError{Kind: "table", Index: opts.Table, Limit: len(tables)}
		}
		tables = tables[opts.Table : opts.Table+1]
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(tables)
	}

	if len(tables) == 0 {
		r.Println(fmt.Sprintf("No tables found in %s.", file))
		return nil
	}

	for i, t := range tables {
		if i > 0 {
			r.Println("")
		}
		title := fmt.Sprintf("Table %d (lines %d-%d)", t.Metadata.TableIndex, t.Metadata.StartLine+1, t.Metadata.EndLine+1)
		if r.EffectiveMode() == output.ModeMarkdown {
			r.Println(output.FormatHeader(2, title))
			r.Println("")
		} else {
			r.Header(2, title)
		}
		r.Table(t.Headers, t.Rows, t.Alignment)
		if !t.Metadata.IsValid {
			for _, issue := range t.Metadata.ValidationIssues {
				r.Warning(issue)
			}
		}
	}
	return nil
}
