package commands

import (
	"fmt"

	"github.com/leapstack-labs/mdtables/internal/transport"
	"github.com/spf13/cobra"
)

// SortOptions holds options for the sort command.
type SortOptions struct {
	Table           int
	Column          int
	Desc            bool
	Type            string
	CaseInsensitive bool
}

// NewSortCommand creates the sort command.
func NewSortCommand() *cobra.Command {
	opts := &SortOptions{}

	cmd := &cobra.Command{
		Use:   "sort <file>",
		Short: "Sort a table by one column and save the document",
		Long: `Sort the rows of a table by one column and write the result back to the document.

Values are compared as numbers, dates or text depending on --type. With
the default "auto" type, a column whose values are all numbers sorts
numerically. Empty values sort last.`,
		Example: `  # Sort the first table by its second column
  mdtables sort README.md --column 1

  # Sort the third table by date, newest first
  mdtables sort notes.md --table 2 --column 0 --type date --desc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSort(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.Table, "table", 0, "Index of the table to sort")
	cmd.Flags().IntVar(&opts.Column, "column", 0, "Index of the column to sort by")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "Sort in descending order")
	cmd.Flags().StringVar(&opts.Type, "type", "auto", "Value type (auto|number|date|string|natural)")
	cmd.Flags().BoolVar(&opts.CaseInsensitive, "ignore-case", false, "Compare text case-insensitively")

	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "number", "date", "string", "natural"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runSort(cmd *cobra.Command, file string, opts *SortOptions) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()

	hist, err := cmdCtx.OpenHistory()
	if err != nil {
		return err
	}
	defer func() { _ = hist.Close() }()

	sess, err := cmdCtx.openDocument(ctx, file, hist, nil)
	if err != nil {
		return err
	}

	direction := "asc"
	if opts.Desc {
		direction = "desc"
	}
	column := opts.Column
	msg := transport.Sort{
		Target:          tableIndex(opts.Table),
		Column:          &column,
		Direction:       direction,
		SortType:        opts.Type,
		CaseInsensitive: opts.CaseInsensitive,
	}
	if _, err := execute(ctx, sess, msg); err != nil {
		return err
	}

	cmdCtx.Renderer.Success(fmt.Sprintf("Sorted table %d of %s by column %d (%s)", opts.Table, file, opts.Column, direction))
	return nil
}
