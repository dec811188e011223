package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gogpu/boardview/board"
	"github.com/gogpu/boardview/internal/scene"
)

func (a *app) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <document.json>",
		Short: "Build the scene and report batches, ribbons and skipped records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := board.LoadFile(args[0])
			if err != nil {
				return err
			}
			s := scene.New(scene.Config{
				LayerOffset: a.cfg.Engine.LayerOffset,
				StackOffset: a.cfg.Engine.StackOffset,
				HoleSlack:   a.cfg.Engine.HoleSlack,
				Logger:      a.log,
			})
			defer s.Close()
			if err := s.InitBoard(doc.Board); err != nil {
				return err
			}
			s.SetComponents(doc.Components)
			rep := s.Rebuild()
			return writeReport(cmd.OutOrStdout(), doc, rep)
		},
	}
}

func writeReport(w io.Writer, doc board.Document, rep scene.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "board\t%gx%g, thickness %g\n", doc.Board.Width, doc.Board.Height, doc.Board.Thickness)
	fmt.Fprintf(tw, "components\t%d\n", len(doc.Components))
	fmt.Fprintf(tw, "batches\t%d\n", rep.Batches)

	keys := make([]string, 0, len(rep.Instances))
	counts := make(map[string]int, len(rep.Instances))
	for k, n := range rep.Instances {
		keys = append(keys, k.String())
		counts[k.String()] = n
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(tw, "  %s\t%d instances\n", k, counts[k])
	}
	fmt.Fprintf(tw, "ribbons\t%d\n", rep.Ribbons)
	fmt.Fprintf(tw, "skipped\t%d\n", len(rep.Skipped))
	for _, sk := range rep.Skipped {
		fmt.Fprintf(tw, "  %s\t%s (%s)\n", sk.ID, scene.SkipReason(sk.Err), sk.Kind)
	}
	fmt.Fprintf(tw, "rebuild\t%s\n", rep.Duration)
	return tw.Flush()
}
