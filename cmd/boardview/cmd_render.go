package main

import (
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/boardview/board"
)

func (a *app) renderCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "render <document.json>",
		Short: "Rasterize a document to PNG on the CPU",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := board.LoadFile(args[0])
			if err != nil {
				return err
			}
			if err := a.renderTo(doc, output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d)\n", output, a.cfg.Output.Width, a.cfg.Output.Height)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "board.png", "output PNG file")
	return cmd
}

// renderTo rasterizes doc into a PNG at path.
func (a *app) renderTo(doc board.Document, path string) error {
	e, err := a.engineFor(doc)
	if err != nil {
		return err
	}
	defer e.Close()
	img, err := e.Snapshot(a.cfg.Output.Width, a.cfg.Output.Height)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}

func (a *app) exportSTLCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export-stl <document.json>",
		Short: "Write the board geometry as an ASCII STL solid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := board.LoadFile(args[0])
			if err != nil {
				return err
			}
			e, err := a.engineFor(doc)
			if err != nil {
				return err
			}
			defer e.Close()
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			if err := e.ExportSTL(f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "board.stl", "output STL file")
	return cmd
}
