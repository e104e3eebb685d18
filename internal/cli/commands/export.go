package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/mdtables/internal/session"
	"github.com/leapstack-labs/mdtables/internal/transport"
	"github.com/spf13/cobra"
)

// ExportOptions holds options for the export command.
type ExportOptions struct {
	Table int
	Out   string
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export a table to a CSV file",
		Long: `Export one table of a markdown document to CSV.

Without --out the file is named after the document and table and written to
the configured export directory (or the current directory). The global
--encoding flag selects the CSV encoding. Line breaks written as <br> in
the table become real line breaks in the CSV.`,
		Example: `  # Export the first table of README.md
  mdtables export README.md

  # Export the second table as Shift_JIS for spreadsheet tools
  mdtables export README.md --table 1 --encoding sjis --out people.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.Table, "table", 0, "Index of the table to export")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Output CSV path")

	return cmd
}

func runExport(cmd *cobra.Command, file string, opts *ExportOptions) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()

	var picker session.FilePicker = session.PathPicker{Path: opts.Out}
	if opts.Out == "" {
		dir := cmdCtx.Cfg.ExportDir
		if dir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			dir = wd
		}
		picker = session.DirPicker{Dir: dir}
	}

	sess, err := cmdCtx.openDocument(ctx, file, nil, picker)
	if err != nil {
		return err
	}

	t, err := sess.Table(opts.Table)
	if err != nil {
		return err
	}
	var content strings.Builder
	if err := t.WriteCSV(&content); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}

	msg := transport.ExportCSV{
		Target:     tableIndex(opts.Table),
		CSVContent: content.String(),
	}
	out, err := execute(ctx, sess, msg)
	if err != nil {
		return err
	}

	cmdCtx.Renderer.Success(out.successMessage())
	return nil
}
