package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/gogpu/boardview/board"
)

// watchDebounce coalesces the burst of events editors emit per save.
const watchDebounce = 100 * time.Millisecond

func (a *app) watchCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "watch <document.json>",
		Short: "Re-render the document every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.watch(ctx, args[0], output, func(path string) {
				fmt.Fprintf(cmd.OutOrStdout(), "rendered %s\n", path)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "board.png", "output PNG file")
	return cmd
}

// watch renders docPath to output once, then again after every write,
// until ctx is done. Render failures are logged and watching continues.
func (a *app) watch(ctx context.Context, docPath, output string, rendered func(string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory: editors often replace the file on save.
	abs, err := filepath.Abs(docPath)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	render := func() {
		doc, err := board.LoadFile(abs)
		if err != nil {
			a.log.Warn("watch: load failed", "path", abs, "err", err)
			return
		}
		if err := a.renderTo(doc, output); err != nil {
			a.log.Warn("watch: render failed", "err", err)
			return
		}
		rendered(output)
	}
	render()

	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)) {
				continue
			}
			a.log.Debug("watch: change", "op", ev.Op, "path", ev.Name)
			timer = time.After(watchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.log.Warn("watch: watcher error", "err", err)
		case <-timer:
			timer = nil
			render()
		}
	}
}
