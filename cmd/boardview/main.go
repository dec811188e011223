// Command boardview renders, inspects and edits board layout documents.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/boardview"
	"github.com/gogpu/boardview/board"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	verbose    bool
	storePath  string

	cfg *Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "boardview",
		Short: "Render and inspect PCB layout documents",
		Long: `boardview loads a board document (JSON: a board config plus pads, holes
and traces), builds the instanced 3D scene and renders, picks or exports it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			boardview.SetLogger(a.log)

			cfg, err := LoadConfig(a.configPath)
			if err != nil {
				return err
			}
			if a.storePath != "" {
				cfg.Store.Path = a.storePath
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&a.storePath, "store", "", "snapshot database (overrides config)")

	root.AddCommand(
		a.renderCmd(),
		a.inspectCmd(),
		a.pickCmd(),
		a.watchCmd(),
		a.exportSTLCmd(),
		a.shaderCmd(),
		a.storeCmd(),
		a.gpuDryRunCmd(),
	)
	return root
}

// engineFor creates an engine with doc loaded and the configured camera.
func (a *app) engineFor(doc board.Document) (*boardview.Engine, error) {
	e := boardview.NewEngine(append(a.cfg.Options(), boardview.WithLogger(a.log))...)
	if err := e.Load(doc); err != nil {
		e.Close()
		return nil, err
	}
	e.SetCamera(a.cfg.CameraFor(doc.Board))
	if err := e.Tick(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
