package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/gogpu/boardview"
	"github.com/gogpu/boardview/board"
)

func (a *app) gpuDryRunCmd() *cobra.Command {
	var (
		frames      int
		showMetrics bool
	)
	cmd := &cobra.Command{
		Use:   "gpu-dryrun <document.json>",
		Short: "Run the GPU draw path against the no-op device and print frame stats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := board.LoadFile(args[0])
			if err != nil {
				return err
			}
			instance, err := noop.API{}.CreateInstance(nil)
			if err != nil {
				return fmt.Errorf("create instance: %w", err)
			}
			defer instance.Destroy()
			adapters := instance.EnumerateAdapters(nil)
			if len(adapters) == 0 {
				return fmt.Errorf("no adapter")
			}
			dev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
			if err != nil {
				return fmt.Errorf("open device: %w", err)
			}
			defer dev.Device.Destroy()

			reg := prometheus.NewRegistry()
			opts := append(a.cfg.Options(), boardview.WithLogger(a.log), boardview.WithMetrics(reg))
			e := boardview.NewEngine(opts...)
			defer e.Close()
			if err := e.Load(doc); err != nil {
				return err
			}
			e.SetCamera(a.cfg.CameraFor(doc.Board))
			//nolint:gosec // output sizes come from a validated config
			if err := e.AttachDevice(dev.Device, dev.Queue, uint32(a.cfg.Output.Width), uint32(a.cfg.Output.Height)); err != nil {
				return err
			}
			for i := 0; i < frames; i++ {
				if err := e.Tick(); err != nil {
					return err
				}
			}
			writeFrameStats(cmd.OutOrStdout(), e.FrameStats())
			if showMetrics {
				return writeMetrics(cmd.OutOrStdout(), reg)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&frames, "frames", "n", 3, "frames to submit")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print engine metrics")
	return cmd
}

func writeFrameStats(w io.Writer, s boardview.FrameStats) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "frames\t%d\n", s.Frames)
	fmt.Fprintf(tw, "draw calls\t%d\n", s.DrawCalls)
	fmt.Fprintf(tw, "instances\t%d\n", s.Instances)
	fmt.Fprintf(tw, "slot uploads\t%d\n", s.SlotUploads)
	fmt.Fprintf(tw, "signal uploads\t%d\n", s.SignalUploads)
	fmt.Fprintf(tw, "buffers\t%d (%d bytes)\n", s.Buffers, s.MemoryBytes)
	_ = tw.Flush()
}

// writeMetrics prints counter and gauge samples as name{labels} value.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			labels := ""
			for i, lp := range m.GetLabel() {
				if i > 0 {
					labels += ","
				}
				labels += fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue())
			}
			if labels != "" {
				labels = "{" + labels + "}"
			}
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(w, "%s%s %g\n", f.GetName(), labels, m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				fmt.Fprintf(w, "%s%s %g\n", f.GetName(), labels, m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				fmt.Fprintf(w, "%s_count%s %d\n", f.GetName(), labels, m.GetHistogram().GetSampleCount())
			}
		}
	}
	return nil
}
