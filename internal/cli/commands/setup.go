package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/leapstack-labs/mdtables/internal/cli/config"
	"github.com/leapstack-labs/mdtables/internal/cli/output"
	"github.com/leapstack-labs/mdtables/internal/csvio"
	"github.com/leapstack-labs/mdtables/internal/document"
	"github.com/leapstack-labs/mdtables/internal/history"
	"github.com/leapstack-labs/mdtables/internal/session"
	"github.com/leapstack-labs/mdtables/internal/transport"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Store    *document.FileStore
}

// NewCommandContext creates a CommandContext with a document store rooted
// at the configured root.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
		Store:    document.NewFileStore(cfg.Root),
	}
}

// getConfig returns the current configuration, or the defaults when no
// configuration was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// OpenHistory opens the undo history at the configured state path.
// The caller must close it.
func (c *CommandContext) OpenHistory() (*history.Store, error) {
	h, err := history.Open(c.Cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	h.SetLimit(c.Cfg.HistoryLimit)
	return h, nil
}

// NewManager creates a session manager over the command's store. Pass an
// untyped nil hist for read-only commands.
func (c *CommandContext) NewManager(hist session.History, picker session.FilePicker) (*session.Manager, error) {
	enc, err := csvio.ParseEncoding(string(c.Cfg.CSVEncoding))
	if err != nil {
		return nil, err
	}
	opts := session.Options{
		Store:       c.Store,
		History:     hist,
		Picker:      picker,
		CSVEncoding: enc,
		MaxAttempts: c.Cfg.GetTransportConfig().MaxAttempts,
		Logger:      c.Logger,
	}
	return session.NewManager(opts), nil
}

// DocumentURI maps a file argument to a document URI. Files below the root
// get root-relative URIs, others are addressed by absolute path.
func (c *CommandContext) DocumentURI(arg string) (string, error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", err
	}
	return c.Store.Canonical(abs), nil
}

// replies collects the messages a session sends back to the CLI.
type replies struct {
	msgs []transport.Outbound
}

func (r *replies) Send(_ context.Context, msg transport.Outbound) error {
	r.msgs = append(r.msgs, msg)
	return nil
}

// last returns the final reply of the given kind.
func (r *replies) last(cmd transport.OutboundCommand) (transport.Outbound, bool) {
	for i := len(r.msgs) - 1; i >= 0; i-- {
		if r.msgs[i].Command == cmd {
			return r.msgs[i], true
		}
	}
	return transport.Outbound{}, false
}

// status returns the status of the last status reply, if any.
func (r *replies) status() string {
	msg, ok := r.last(transport.OutStatus)
	if !ok {
		return ""
	}
	if p, ok := msg.Data.(transport.StatusPayload); ok {
		return p.Status
	}
	return ""
}

// successMessage returns the message of the last success reply, if any.
func (r *replies) successMessage() string {
	msg, ok := r.last(transport.OutSuccess)
	if !ok {
		return ""
	}
	if p, ok := msg.Data.(transport.MessagePayload); ok {
		return p.Message
	}
	return ""
}

// execute validates msg and runs it against the session.
func execute(ctx context.Context, sess *session.Session, msg transport.Message) (*replies, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	out := &replies{}
	return out, sess.Handle(ctx, out, msg)
}

// tableIndex returns a Target for the --table flag value.
func tableIndex(index int) transport.Target {
	return transport.Target{TableIndex: &index}
}

// openDocument opens a session for the document named by arg.
func (c *CommandContext) openDocument(ctx context.Context, arg string, hist session.History, picker session.FilePicker) (*session.Session, error) {
	uri, err := c.DocumentURI(arg)
	if err != nil {
		return nil, err
	}
	manager, err := c.NewManager(hist, picker)
	if err != nil {
		return nil, err
	}
	sess, err := manager.Open(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", arg, err)
	}
	return sess, nil
}
