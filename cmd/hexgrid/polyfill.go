package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/hexgrid/internal/core/model"
	"github.com/mohammed-shakir/hexgrid/internal/mapper"
	geojsonmapper "github.com/mohammed-shakir/hexgrid/internal/mapper/geojson"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid/tiler"
)

func newPolyfillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "polyfill",
		Short: "Cover a polygon with cells",
		Long: `Cover a polygon with cells at one resolution.

The polygon is given as --polygon "lat,lng;lat,lng;...", as --bbox
"minLat,minLng,maxLat,maxLng", or as a GeoJSON Polygon or Feature file
with --geojson (use - for stdin).`,
		Args: cobra.NoArgs,
		RunE: runPolyfill,
	}
	cmd.Flags().Int("res", 9, "Resolution")
	cmd.Flags().String("mode", "center", "center|full|overlap")
	cmd.Flags().String("polygon", "", "Ring as lat,lng;lat,lng;...")
	cmd.Flags().String("bbox", "", "Box as minLat,minLng,maxLat,maxLng")
	cmd.Flags().String("geojson", "", "GeoJSON file, - for stdin")
	cmd.Flags().Int("seed-radius", 32, "Rings searched for a seed cell")
	cmd.Flags().Duration("timeout", 30*time.Second, "Give up after this long")
	cmd.Flags().String("format", "text", "text|geojson")
	cmd.MarkFlagsOneRequired("polygon", "bbox", "geojson")
	cmd.MarkFlagsMutuallyExclusive("polygon", "bbox", "geojson")
	return cmd
}

// coverInput covers whichever of --polygon, --bbox or --geojson was given.
func coverInput(ctx context.Context, cmd *cobra.Command, m mapper.Interface, res int, mode tiler.Mode) (model.Cells, error) {
	if s, _ := cmd.Flags().GetString("polygon"); s != "" {
		ring, err := model.ParseRing(s)
		if err != nil {
			return nil, err
		}
		return m.CellsForRing(ctx, ring, res, mode)
	}
	if s, _ := cmd.Flags().GetString("bbox"); s != "" {
		bb, err := model.ParseBBox(s)
		if err != nil {
			return nil, err
		}
		return m.CellsForBBox(ctx, bb, res, mode)
	}
	path, _ := cmd.Flags().GetString("geojson")
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return m.CellsForPolygon(ctx, model.Polygon{GeoJSON: b}, res, mode)
}

func runPolyfill(cmd *cobra.Command, _ []string) error {
	res, _ := cmd.Flags().GetInt("res")
	rawMode, _ := cmd.Flags().GetString("mode")
	mode, err := tiler.ParseMode(rawMode)
	if err != nil {
		return err
	}
	seed, _ := cmd.Flags().GetInt("seed-radius")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	cells, err := coverInput(ctx, cmd, geojsonmapper.New(seed), res, mode)
	if err != nil {
		return err
	}

	if format, _ := cmd.Flags().GetString("format"); format == "geojson" {
		fc, err := geojsonmapper.CellFeatures(cells)
		if err != nil {
			return err
		}
		b, err := fc.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return err
	}
	return emit(cmd, map[string]any{"res": res, "mode": mode, "count": len(cells), "cells": cells}, strings.Join(cells.Strings(), "\n"))
}
