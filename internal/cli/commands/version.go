package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/leapstack-labs/mdtables/internal/csvio"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the mdtables version, the Go runtime it was built with and the CSV encodings it supports.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			encodings := make([]string, 0, len(csvio.Encodings()))
			for _, enc := range csvio.Encodings() {
				encodings = append(encodings, string(enc))
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "mdtables v%s\n", version)
			_, _ = fmt.Fprintln(w, "Markdown table editor built with Go")
			_, _ = fmt.Fprintf(w, "runtime: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			_, _ = fmt.Fprintf(w, "csv encodings: %s\n", strings.Join(encodings, ", "))
		},
	}
}
