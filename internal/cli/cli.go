// Package cli implements the riglink command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/riglink/pkg/buildinfo"
	"github.com/matzehuels/riglink/pkg/config"
	"github.com/matzehuels/riglink/pkg/controller"
	"github.com/matzehuels/riglink/pkg/observability"
	"github.com/matzehuels/riglink/pkg/rig"
	"github.com/matzehuels/riglink/pkg/scene"
	"github.com/matzehuels/riglink/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "riglink"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogError = log.ErrorLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the --config flag. Empty uses the default location.
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Riglink rigs layered scenes with controller layers",
		Long:         `Riglink creates controller layers in a scene and binds the position and scale of other layers to them through generated formulas.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/riglink/riglink.toml)")

	root.AddCommand(c.sceneCommand())
	root.AddCommand(c.controllerCommand())
	root.AddCommand(c.selectCommand())
	root.AddCommand(c.bindCommand())
	root.AddCommand(c.formulaCommand())
	root.AddCommand(c.recoverCommand())
	root.AddCommand(c.cleanupCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.panelCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())
	root.AddCommand(c.versionCommand())

	return root
}

// =============================================================================
// Workspace
// =============================================================================

// workspace is the state a command works against: the loaded config, the
// scene store and a runner configured from both.
type workspace struct {
	cfg    *config.Config
	scenes *store.Scenes
	runner *rig.Runner
}

// open loads the config and opens the configured store.
func (c *CLI) open(ctx context.Context) (*workspace, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("opened store", "backend", cfg.Store.Backend)

	bus := observability.NewBus()
	bus.Subscribe(func(_ context.Context, ev observability.Event) {
		c.Logger.Debug("event", "type", ev.Type, "scene", ev.Scene, "controller", ev.Controller, "count", ev.Count)
	})
	reg := controller.NewRegistry(
		controller.WithPrefix(cfg.Controllers.Prefix),
		controller.WithBus(bus),
	)
	return &workspace{
		cfg:    cfg,
		scenes: store.NewScenes(st),
		runner: rig.NewRunner(reg, c.Logger, cfg.RunnerOptions()...),
	}, nil
}

// Close releases the store.
func (w *workspace) Close() error {
	return w.scenes.Store.Close()
}

// update loads the named scene, applies fn and saves the result as one
// undo step.
func (w *workspace) update(ctx context.Context, name, step string, fn func(*scene.Scene) error) (*scene.Scene, error) {
	s, err := w.scenes.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if _, err := w.scenes.Save(ctx, s, step); err != nil {
		return nil, err
	}
	return s, nil
}

// withWorkspace opens a workspace for the duration of fn.
func (c *CLI) withWorkspace(ctx context.Context, fn func(*workspace) error) error {
	ws, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()
	return fn(ws)
}
