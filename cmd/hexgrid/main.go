package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	geojsonmapper "github.com/mohammed-shakir/hexgrid/internal/mapper/geojson"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hexgrid",
		Short:         "Inspect and convert hexagonal grid cells",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().Bool("json", false, "Print JSON instead of text")

	decodeCmd := &cobra.Command{
		Use:   "decode <cell>",
		Short: "Show resolution, base cell and flags of a cell",
		Args:  cobra.ExactArgs(1),
		RunE:  runDecode,
	}

	parentCmd := &cobra.Command{
		Use:   "parent <cell>",
		Short: "Ancestor of a cell at a coarser resolution",
		Args:  cobra.ExactArgs(1),
		RunE:  runRelation(hexgrid.Cell.Parent),
	}
	parentCmd.Flags().Int("res", -1, "Target resolution (required)")

	centerChildCmd := &cobra.Command{
		Use:   "center-child <cell>",
		Short: "Descendant sharing the cell's center",
		Args:  cobra.ExactArgs(1),
		RunE:  runRelation(hexgrid.Cell.CenterChild),
	}
	centerChildCmd.Flags().Int("res", -1, "Target resolution (required)")

	childrenCmd := &cobra.Command{
		Use:   "children <cell>",
		Short: "All descendants at a finer resolution",
		Args:  cobra.ExactArgs(1),
		RunE:  runChildren,
	}
	childrenCmd.Flags().Int("res", -1, "Target resolution (required)")
	childrenCmd.Flags().Int64("max", 100000, "Refuse to list more cells than this")

	cellCmd := &cobra.Command{
		Use:   "cell",
		Short: "Cell containing a point",
		Args:  cobra.NoArgs,
		RunE:  runCell,
	}
	cellCmd.Flags().Float64("lat", 0, "Latitude in degrees")
	cellCmd.Flags().Float64("lng", 0, "Longitude in degrees")
	cellCmd.Flags().Int("res", 9, "Resolution")
	_ = cellCmd.MarkFlagRequired("lat")
	_ = cellCmd.MarkFlagRequired("lng")

	centerCmd := &cobra.Command{
		Use:   "center <cell>",
		Short: "Center point of a cell",
		Args:  cobra.ExactArgs(1),
		RunE:  runCenter,
	}

	boundaryCmd := &cobra.Command{
		Use:   "boundary <cell>",
		Short: "Boundary vertices of a cell, counter-clockwise",
		Args:  cobra.ExactArgs(1),
		RunE:  runBoundary,
	}
	boundaryCmd.Flags().Bool("geojson", false, "Print a GeoJSON Feature")

	localIJCmd := &cobra.Command{
		Use:   "local-ij <origin> <cell>",
		Short: "IJ coordinates of a cell relative to an origin",
		Args:  cobra.ExactArgs(2),
		RunE:  runLocalIJ,
	}

	edgeLengthCmd := &cobra.Command{
		Use:   "edge-length <edge>",
		Short: "Length of a directed edge",
		Args:  cobra.ExactArgs(1),
		RunE:  runEdgeLength,
	}
	edgeLengthCmd.Flags().String("unit", string(hexgrid.Kilometers), "km|m|rads")

	areaCmd := &cobra.Command{
		Use:   "area <cell>",
		Short: "Surface area of a cell",
		Args:  cobra.ExactArgs(1),
		RunE:  runArea,
	}
	areaCmd.Flags().String("unit", string(hexgrid.SquareKilometers), "km2|m2|rads2")

	diskCmd := &cobra.Command{
		Use:   "disk <cell>",
		Short: "Cells within k steps, ring by ring",
		Args:  cobra.ExactArgs(1),
		RunE:  runDisk,
	}
	diskCmd.Flags().Int("k", 1, "Grid distance")

	root.AddCommand(decodeCmd, parentCmd, childrenCmd, centerChildCmd, cellCmd, centerCmd,
		boundaryCmd, localIJCmd, edgeLengthCmd, areaCmd, diskCmd,
		newPolyfillCmd(), newDoctorCmd(), newBenchCmd())
	return root
}

// emit prints v as JSON with --json, otherwise text.
func emit(cmd *cobra.Command, v any, text string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(out, strings.TrimRight(text, "\n"))
	return err
}

func resFlag(cmd *cobra.Command) (int, error) {
	res, _ := cmd.Flags().GetInt("res")
	if res < 0 {
		return 0, fmt.Errorf("--res: %w: required", hexgrid.ErrInvalidResolution)
	}
	return res, nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	c, err := hexgrid.ParseCell(args[0])
	if err != nil {
		return err
	}
	center, err := c.LatLng()
	if err != nil {
		return err
	}
	v := map[string]any{
		"cell":      c,
		"res":       c.Resolution(),
		"base_cell": c.BaseCell(),
		"pentagon":  c.IsPentagon(),
		"class_iii": c.IsClassIII(),
		"center":    center,
	}
	text := fmt.Sprintf("cell %s\nres %d\nbase_cell %d\npentagon %t\nclass_iii %t\ncenter %.9f %.9f",
		c, c.Resolution(), c.BaseCell(), c.IsPentagon(), c.IsClassIII(), center.Lat, center.Lng)
	return emit(cmd, v, text)
}

func runRelation(fn func(hexgrid.Cell, int) (hexgrid.Cell, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := hexgrid.ParseCell(args[0])
		if err != nil {
			return err
		}
		res, err := resFlag(cmd)
		if err != nil {
			return err
		}
		out, err := fn(c, res)
		if err != nil {
			return err
		}
		return emit(cmd, map[string]any{"cell": c, "res": res, "result": out}, out.String())
	}
}

func runChildren(cmd *cobra.Command, args []string) error {
	c, err := hexgrid.ParseCell(args[0])
	if err != nil {
		return err
	}
	res, err := resFlag(cmd)
	if err != nil {
		return err
	}
	n, err := c.ChildCount(res)
	if err != nil {
		return err
	}
	if limit, _ := cmd.Flags().GetInt64("max"); n > limit {
		return fmt.Errorf("%d children at resolution %d, above --max %d", n, res, limit)
	}
	kids, err := c.Children(res)
	if err != nil {
		return err
	}
	return emit(cmd, kids, joinCells(kids))
}

func runCell(cmd *cobra.Command, _ []string) error {
	lat, _ := cmd.Flags().GetFloat64("lat")
	lng, _ := cmd.Flags().GetFloat64("lng")
	res, _ := cmd.Flags().GetInt("res")
	ll, err := hexgrid.NewLatLng(lat, lng)
	if err != nil {
		return err
	}
	c, err := hexgrid.LatLngToCell(ll, res)
	if err != nil {
		return err
	}
	return emit(cmd, map[string]any{"cell": c, "res": res}, c.String())
}

func runCenter(cmd *cobra.Command, args []string) error {
	c, err := hexgrid.ParseCell(args[0])
	if err != nil {
		return err
	}
	ll, err := c.LatLng()
	if err != nil {
		return err
	}
	return emit(cmd, ll, fmt.Sprintf("%.9f %.9f", ll.Lat, ll.Lng))
}

func runBoundary(cmd *cobra.Command, args []string) error {
	c, err := hexgrid.ParseCell(args[0])
	if err != nil {
		return err
	}
	if gj, _ := cmd.Flags().GetBool("geojson"); gj {
		f, err := geojsonmapper.CellFeature(c)
		if err != nil {
			return err
		}
		b, err := f.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return err
	}
	b, err := c.Boundary()
	if err != nil {
		return err
	}
	var sb strings.Builder
	for _, v := range b {
		fmt.Fprintf(&sb, "%.9f %.9f\n", v.Lat, v.Lng)
	}
	return emit(cmd, b, sb.String())
}

func runLocalIJ(cmd *cobra.Command, args []string) error {
	origin, err := hexgrid.ParseCell(args[0])
	if err != nil {
		return err
	}
	c, err := hexgrid.ParseCell(args[1])
	if err != nil {
		return err
	}
	ij, err := hexgrid.CellToLocalIJ(origin, c)
	if err != nil {
		return err
	}
	return emit(cmd, ij, fmt.Sprintf("%d %d", ij.I, ij.J))
}

func runEdgeLength(cmd *cobra.Command, args []string) error {
	unit, _ := cmd.Flags().GetString("unit")
	l, err := hexgrid.EdgeLength(args[0], unit)
	if err != nil {
		return err
	}
	return emit(cmd, map[string]any{"edge": strings.ToLower(args[0]), "unit": unit, "length": l}, fmt.Sprintf("%.9f %s", l, unit))
}

func runArea(cmd *cobra.Command, args []string) error {
	c, err := hexgrid.ParseCell(args[0])
	if err != nil {
		return err
	}
	raw, _ := cmd.Flags().GetString("unit")
	u, err := hexgrid.ParseAreaUnit(raw)
	if err != nil {
		return err
	}
	a, err := c.Area(u)
	if err != nil {
		return err
	}
	return emit(cmd, map[string]any{"cell": c, "unit": u, "area": a}, fmt.Sprintf("%.9f %s", a, u))
}

func runDisk(cmd *cobra.Command, args []string) error {
	c, err := hexgrid.ParseCell(args[0])
	if err != nil {
		return err
	}
	k, _ := cmd.Flags().GetInt("k")
	rings, err := hexgrid.GridDiskDistances(c, k)
	if err != nil {
		return err
	}
	var sb strings.Builder
	for d, ring := range rings {
		fmt.Fprintf(&sb, "%d: %s\n", d, strings.Join(cellStrings(ring), " "))
	}
	return emit(cmd, rings, sb.String())
}

func cellStrings(cells []hexgrid.Cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.String()
	}
	return out
}

func joinCells(cells []hexgrid.Cell) string {
	return strings.Join(cellStrings(cells), "\n")
}
