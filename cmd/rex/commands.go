package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"

	"github.com/vango-dev/rex/pkg/bind"
	"github.com/vango-dev/rex/pkg/reactive"
	"github.com/vango-dev/rex/pkg/reconcile"
	"github.com/vango-dev/rex/pkg/render"
	"github.com/vango-dev/rex/pkg/scene"
	"github.com/vango-dev/rex/pkg/scene/memory"
)

// screen creates an in-memory graph with a ScreenGui container.
func screen() (*memory.Graph, scene.Handle, error) {
	g := memory.New()
	h, err := g.Create("ScreenGui")
	if err != nil {
		return nil, nil, err
	}
	if err := g.SetProperty(h, "Name", "Screen"); err != nil {
		return nil, nil, err
	}
	return g, h, nil
}

// renderer builds a renderer for g from the loaded configuration.
func (a *app) renderer(g scene.Graph) *render.Renderer {
	binder := bind.New(g, bind.WithEvents(scene.DefaultEvents.Merge(a.cfg.Events)))
	return render.New(g,
		render.WithTracerName(a.cfg.Tracing.TracerName),
		render.WithReconcileOptions(
			reconcile.WithBinder(binder),
			reconcile.WithReorder(a.cfg.ReorderEnabled()),
			reconcile.WithLayoutClasses(a.cfg.LayoutClasses...),
		),
	)
}

func (a *app) renderCmd() *cobra.Command {
	var stats bool

	cmd := &cobra.Command{
		Use:   "render <tree.yaml>",
		Short: "Mount a tree and print the resulting objects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			el, err := loadTree(a.fs, args[0])
			if err != nil {
				return err
			}
			g, root, err := screen()
			if err != nil {
				return err
			}
			g.ResetStats()

			if _, err := a.renderer(g).Mount(cmd.Context(), el, root); err != nil {
				return err
			}
			reactive.Flush()

			out := cmd.OutOrStdout()
			fmt.Fprint(out, g.Dump(root))
			if stats {
				fmt.Fprintln(out, formatStats(g.Stats()))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stats, "stats", false, "Print native operation counts")

	return cmd
}

func (a *app) diffCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "diff <old.yaml> <new.yaml>",
		Short: "Reconcile one tree into another and print the native operations",
		Long: `Mount the old tree, reconcile it into the new one and print both object
trees followed by the number of creates, destroys, property sets, moves and
reparents the update needed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prev, err := loadTree(a.fs, args[0])
			if err != nil {
				return err
			}
			next, err := loadTree(a.fs, args[1])
			if err != nil {
				return err
			}
			g, root, err := screen()
			if err != nil {
				return err
			}

			r := a.renderer(g)
			if _, err := r.Mount(cmd.Context(), prev, root); err != nil {
				return err
			}
			reactive.Flush()
			before := g.Dump(root)
			g.ResetStats()

			if _, err := r.Reconciler().Reconcile(prev, next, root); err != nil {
				return err
			}
			reactive.Flush()

			out := cmd.OutOrStdout()
			if !quiet {
				fmt.Fprintf(out, "--- %s\n%s+++ %s\n%s", args[0], before, args[1], g.Dump(root))
			}
			fmt.Fprintln(out, formatStats(g.Stats()))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the operation counts")

	return cmd
}

func formatStats(s memory.Stats) string {
	return fmt.Sprintf("creates=%d destroys=%d sets=%d moves=%d reparents=%d",
		s.Creates, s.Destroys, s.Sets, s.Moves, s.Reparents)
}

// writeMetrics prints counters and histogram sample counts gathered from g,
// one line per series.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				fmt.Fprintf(w, "%s%s %g\n", name, labels(m), m.GetCounter().GetValue())
			case dto.MetricType_HISTOGRAM:
				fmt.Fprintf(w, "%s_count%s %d\n", name, labels(m), m.GetHistogram().GetSampleCount())
			}
		}
	}
	return nil
}

func labels(m *dto.Metric) string {
	pairs := m.GetLabel()
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%q", p.GetName(), p.GetValue()))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}
