package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/leapstack-labs/mdtables/internal/cli/output"
	"github.com/leapstack-labs/mdtables/internal/csvio"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Root == "" {
		errs = append(errs, errors.New("root is required"))
	}
	if c.OutputFormat != "" && !slices.Contains(output.Modes(), c.OutputFormat) {
		errs = append(errs, fmt.Errorf("output must be one of %v, got %q", output.Modes(), c.OutputFormat))
	}
	if _, err := csvio.ParseEncoding(string(c.CSVEncoding)); err != nil {
		errs = append(errs, fmt.Errorf("csv_encoding: %w", err))
	}
	if c.HistoryLimit < 0 {
		errs = append(errs, fmt.Errorf("history_limit must not be negative, got %d", c.HistoryLimit))
	}
	if c.UI != nil && (c.UI.Port < 0 || c.UI.Port > 65535) {
		errs = append(errs, fmt.Errorf("ui.port out of range: %d", c.UI.Port))
	}
	if c.Transport != nil {
		if c.Transport.MaxAttempts < 0 {
			errs = append(errs, fmt.Errorf("transport.max_attempts must not be negative, got %d", c.Transport.MaxAttempts))
		}
		if c.Transport.PingInterval < 0 || c.Transport.PingTimeout < 0 {
			errs = append(errs, errors.New("transport ping durations must not be negative"))
		}
	}

	return errors.Join(errs...)
}

// ValidateDirectories checks if the document root exists.
func (c *Config) ValidateDirectories() error {
	info, err := os.Stat(c.Root)
	if os.IsNotExist(err) {
		return fmt.Errorf("document root does not exist: %s\nHint: Create the directory or use --root to specify a different path", c.Root)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("document root is not a directory: %s", c.Root)
	}
	return nil
}
