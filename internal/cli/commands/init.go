package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/mdtables/internal/cli/config"
	"github.com/leapstack-labs/mdtables/internal/cli/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create an mdtables.yaml configuration file",
		Long: `Create an mdtables.yaml file holding the default configuration.

The file is written to the given directory (default: current directory).
Commands run in that directory or below it pick the file up automatically.`,
		Example: `  # Initialize in current directory
  mdtables init

  # Initialize in a new directory
  mdtables init notes

  # Force overwrite existing config
  mdtables init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			// Create renderer
			cfg := getConfig()
			mode := output.Mode(cfg.OutputFormat)
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

// configFile is the layout of a generated mdtables.yaml. Durations are
// written as strings like "30s".
type configFile struct {
	Root         string            `yaml:"root"`
	StatePath    string            `yaml:"state_path"`
	Output       string            `yaml:"output"`
	CSVEncoding  string            `yaml:"csv_encoding"`
	HistoryLimit int               `yaml:"history_limit"`
	UI           *config.UIConfig  `yaml:"ui"`
	Transport    transportSettings `yaml:"transport"`
}

type transportSettings struct {
	MaxAttempts  int    `yaml:"max_attempts"`
	PingInterval string `yaml:"ping_interval"`
	PingTimeout  string `yaml:"ping_timeout"`
}

func newConfigFile(cfg *config.Config) configFile {
	t := cfg.GetTransportConfig()
	return configFile{
		Root:         cfg.Root,
		StatePath:    cfg.StatePath,
		Output:       cfg.OutputFormat,
		CSVEncoding:  string(cfg.CSVEncoding),
		HistoryLimit: cfg.HistoryLimit,
		UI:           cfg.UI,
		Transport: transportSettings{
			MaxAttempts:  t.MaxAttempts,
			PingInterval: t.PingInterval.String(),
			PingTimeout:  t.PingTimeout.String(),
		},
	}
}

func runInit(r *output.Renderer, dir string, force bool) error {
	// Create directory if specified and doesn't exist
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// Check if config already exists
	configPath := filepath.Join(dir, config.ConfigFileNames[0])
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileNames[0])
	}

	content, err := yaml.Marshal(newConfigFile(config.Default()))
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := os.WriteFile(configPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	r.StatusLine(config.ConfigFileNames[0], "success", "")
	r.Println("")
	r.Success("mdtables initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Run 'mdtables list' to find the tables in your documents")
	r.Println("  2. Run 'mdtables show <file>' to print them")
	r.Println("  3. Run 'mdtables serve' to edit them from a surface")

	return nil
}
