package commands

import (
	"github.com/leapstack-labs/mdtables/internal/session"
	"github.com/leapstack-labs/mdtables/internal/transport"
	"github.com/spf13/cobra"
)

// ImportOptions holds options for the import command.
type ImportOptions struct {
	Table int
}

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import <file> <csv>",
		Short: "Replace a table with the contents of a CSV file",
		Long: `Replace one table of a markdown document with the rows of a CSV file.

The first CSV record becomes the header row. The file encoding (UTF-8 with
or without BOM, Shift_JIS, Windows-1252) is detected automatically. The
replaced table can be restored with 'mdtables undo'.`,
		Example: `  # Replace the first table of README.md with people.csv
  mdtables import README.md people.csv

  # Replace the second table
  mdtables import README.md people.csv --table 1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().IntVar(&opts.Table, "table", 0, "Index of the table to replace")

	return cmd
}

func runImport(cmd *cobra.Command, file, csvPath string, opts *ImportOptions) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()

	hist, err := cmdCtx.OpenHistory()
	if err != nil {
		return err
	}
	defer func() { _ = hist.Close() }()

	sess, err := cmdCtx.openDocument(ctx, file, hist, session.PathPicker{Path: csvPath})
	if err != nil {
		return err
	}

	out, err := execute(ctx, sess, transport.ImportCSV{Target: tableIndex(opts.Table)})
	if err != nil {
		return err
	}

	cmdCtx.Renderer.Success(out.successMessage())
	return nil
}
