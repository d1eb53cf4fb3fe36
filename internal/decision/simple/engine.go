package simple

import (
	"github.com/mohammed-shakir/hexgrid/internal/decision"
	"github.com/mohammed-shakir/hexgrid/internal/hotness"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
)

type Engine struct {
	Hot       hotness.Interface
	Threshold float64
	// MinCells shares coverages at least this large whatever their heat; 0 disables.
	MinCells int
}

var _ decision.Interface = (*Engine)(nil)

// returns true if the coverage is large, or any cell or its parent is hot
func (e *Engine) ShouldShare(cells []hexgrid.Cell) bool {
	if len(cells) == 0 {
		return false
	}
	if e.MinCells > 0 && len(cells) >= e.MinCells {
		return true
	}
	if e.Hot == nil {
		return false
	}

	parents := make(map[hexgrid.Cell]struct{})
	for _, c := range cells {
		if e.Hot.Score(c) >= e.Threshold {
			return true
		}
		if r := c.Resolution(); r > 0 {
			if p, err := c.Parent(r - 1); err == nil {
				parents[p] = struct{}{}
			}
		}
	}
	// parent lookups count double: they stand for up to seven children
	for p := range parents {
		if 2*e.Hot.Score(p) >= e.Threshold {
			return true
		}
	}
	return false
}
