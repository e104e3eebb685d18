package commands

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/leapstack-labs/mdtables/internal/csvio"
	"github.com/leapstack-labs/mdtables/internal/session"
	"github.com/leapstack-labs/mdtables/internal/ui"
	"github.com/spf13/cobra"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port      int
	NoBrowser bool
	Watch     bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"ui"},
		Short:   "Start the table editing server",
		Long: `Start a local web server that lets surfaces edit the tables of the markdown
documents below the root.

The server provides:
- A live table stream per document (server-sent events)
- A command endpoint for cell, row, column, sort and CSV operations
- A document index with table counts
- Reloading of open documents when they change on disk`,
		Example: `  # Start on the default port
  mdtables serve

  # Start on a custom port without watching files
  mdtables serve --port 3000 --watch=false`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Watch for file changes")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	logger := cmdCtx.Logger
	r := cmdCtx.Renderer

	// Get UI config with defaults
	uiCfg := cfg.GetUIConfig()
	transportCfg := cfg.GetTransportConfig()

	// CLI flags override config file
	port := uiCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}

	autoOpen := uiCfg.AutoOpen
	if opts.NoBrowser {
		autoOpen = false
	}

	watch := uiCfg.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	if err := cfg.ValidateDirectories(); err != nil {
		return err
	}

	enc, err := csvio.ParseEncoding(string(cfg.CSVEncoding))
	if err != nil {
		return err
	}

	hist, err := cmdCtx.OpenHistory()
	if err != nil {
		return err
	}
	defer func() { _ = hist.Close() }()

	exportDir := cfg.ExportDir
	if exportDir == "" {
		exportDir = cfg.Root
	}

	server := ui.NewServer(ui.Config{
		Store:         cmdCtx.Store,
		History:       hist,
		Picker:        session.DirPicker{Dir: exportDir},
		CSVEncoding:   enc,
		Port:          port,
		Watch:         watch,
		SessionSecret: uiCfg.SessionSecret,
		MaxAttempts:   transportCfg.MaxAttempts,
		PingInterval:  transportCfg.PingInterval,
		PingTimeout:   transportCfg.PingTimeout,
		Logger:        logger,
	})

	// Open browser if configured
	if autoOpen {
		url := fmt.Sprintf("http://localhost:%d", port)
		go openBrowser(url)
	}

	r.Printf("Serving tables under %s on http://localhost:%d\n", cfg.Root, port)
	r.Println("Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return server.Serve(ctx)
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
