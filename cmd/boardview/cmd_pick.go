package main

import (
	"encoding/json"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/spf13/cobra"

	"github.com/gogpu/boardview/board"
)

func (a *app) pickCmd() *cobra.Command {
	var x, y float64
	cmd := &cobra.Command{
		Use:   "pick <document.json>",
		Short: "Click at a pixel of the configured view and print the selection",
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
			e.HandlePointer(gpucontext.PointerEvent{
				Type:      gpucontext.PointerDown,
				Button:    gpucontext.ButtonLeft,
				X:         x,
				Y:         y,
				IsPrimary: true,
			})
			if err := e.Tick(); err != nil {
				return err
			}
			sel, ok := e.Selection()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "null")
				return nil
			}
			out, err := json.Marshal(sel)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().Float64Var(&x, "x", 0, "pointer x in output pixels")
	cmd.Flags().Float64Var(&y, "y", 0, "pointer y in output pixels")
	return cmd
}
