package commands

import (
	"fmt"

	"github.com/leapstack-labs/mdtables/internal/transport"
	"github.com/spf13/cobra"
)

// NewUndoCommand creates the undo command.
func NewUndoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo <file>",
		Short: "Revert the last table edit of a document",
		Long: `Restore a document to its state before the most recent table edit.

Edits made through the UI and through the sort and import commands are
recorded in the history database (state_path). Each undo removes one entry.`,
		Example: `  # Revert the last edit to README.md
  mdtables undo README.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUndo(cmd, args[0])
		},
	}

	return cmd
}

func runUndo(cmd *cobra.Command, file string) error {
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

	out, err := execute(ctx, sess, transport.Undo{})
	if err != nil {
		return err
	}

	if out.status() == "nothingToUndo" {
		cmdCtx.Renderer.Warning(fmt.Sprintf("Nothing to undo for %s", file))
		return nil
	}
	cmdCtx.Renderer.Success(out.successMessage())
	return nil
}
