package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid/tiler"
)

type benchResult struct {
	Op      string  `json:"op"`
	Iters   int     `json:"iterations"`
	NsPerOp float64 `json:"ns_per_op"`
	Err     string  `json:"error,omitempty"`
}

type benchOp struct {
	name string
	fn   func() error
}

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time the grid operations on fixed inputs",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}
	cmd.Flags().Int("n", 1000, "Iterations per operation")
	cmd.Flags().String("only", "", "Run only operations whose name contains this")
	return cmd
}

func benchOps() []benchOp {
	cell := hexgrid.MustParseCell("872830828ffffff")
	point := hexgrid.LatLng{Lat: 40.689247, Lng: -74.044502}
	edge := "115283473fffffff"
	ring := []hexgrid.LatLng{
		{Lat: 37.813318999983238, Lng: -122.4089866999972145},
		{Lat: 37.7198061999978478, Lng: -122.3544736999993603},
		{Lat: 37.8151571999998453, Lng: -122.4798767000009008},
	}
	return []benchOp{
		{"parse_cell", func() error { _, err := hexgrid.ParseCell("872830828ffffff"); return err }},
		{"cell_area", func() error { _, err := cell.Area(hexgrid.SquareKilometers); return err }},
		{"cell_to_latlng", func() error { _, err := cell.LatLng(); return err }},
		{"latlng_to_cell", func() error { _, err := hexgrid.LatLngToCell(point, 9); return err }},
		{"cell_boundary", func() error { _, err := cell.Boundary(); return err }},
		{"parent", func() error { _, err := cell.Parent(5); return err }},
		{"center_child", func() error { _, err := cell.CenterChild(10); return err }},
		{"children", func() error { _, err := cell.Children(9); return err }},
		{"grid_disk", func() error { _, err := hexgrid.GridDisk(cell, 3); return err }},
		{"local_ij", func() error {
			origin, err := cell.Parent(5)
			if err != nil {
				return err
			}
			center, err := origin.CenterChild(7)
			if err != nil {
				return err
			}
			_, err = hexgrid.CellToLocalIJ(center, cell)
			return err
		}},
		{"edge_length", func() error { _, err := hexgrid.EdgeLength(edge, "km"); return err }},
		{"polyfill", func() error {
			t, err := tiler.New(7)
			if err != nil {
				return err
			}
			_, err = t.Cover(context.Background(), ring)
			return err
		}},
	}
}

func runBench(cmd *cobra.Command, _ []string) error {
	n, _ := cmd.Flags().GetInt("n")
	if n <= 0 {
		return fmt.Errorf("-n must be positive")
	}
	only, _ := cmd.Flags().GetString("only")

	var (
		results []benchResult
		sb      strings.Builder
	)
	for _, op := range benchOps() {
		if only != "" && !strings.Contains(op.name, only) {
			continue
		}
		r := benchResult{Op: op.name, Iters: n}
		if err := op.fn(); err != nil {
			r.Err = err.Error()
			r.Iters = 0
		} else {
			start := time.Now()
			for range n {
				_ = op.fn()
			}
			r.NsPerOp = float64(time.Since(start).Nanoseconds()) / float64(n)
		}
		results = append(results, r)
		if r.Err != "" {
			fmt.Fprintf(&sb, "%-16s error: %s\n", r.Op, r.Err)
		} else {
			fmt.Fprintf(&sb, "%-16s %12.0f ns/op\n", r.Op, r.NsPerOp)
		}
	}
	return emit(cmd, results, sb.String())
}
