package tiler

import (
	"fmt"
	"strings"

	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
)

// Mode is the rule deciding whether a cell belongs to a coverage.
type Mode uint8

const (
	// CenterInside keeps cells whose center lies in the polygon.
	CenterInside Mode = iota
	// FullyInside keeps cells whose whole outline lies in the polygon.
	FullyInside
	// BoundaryOverlaps keeps every cell that touches the polygon.
	BoundaryOverlaps
)

func (m Mode) String() string {
	switch m {
	case CenterInside:
		return "center"
	case FullyInside:
		return "full"
	case BoundaryOverlaps:
		return "overlap"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// ParseMode accepts the String form or the long names, in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "center", "centerinside", "center_inside":
		return CenterInside, nil
	case "full", "fullyinside", "fully_inside", "containsboundary":
		return FullyInside, nil
	case "overlap", "boundaryoverlaps", "boundary_overlaps", "covers":
		return BoundaryOverlaps, nil
	}
	return 0, fmt.Errorf("tiler mode: %w: %q", hexgrid.ErrInvalidFormat, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
