// Package hotness tracks how often cells are looked up.
package hotness

import "github.com/mohammed-shakir/hexgrid/pkg/hexgrid"

type Interface interface {
	Inc(cell hexgrid.Cell)
	Score(cell hexgrid.Cell) float64
	Reset(cells ...hexgrid.Cell)
}

// Ranked is a cell with its decayed score.
type Ranked struct {
	Cell  hexgrid.Cell `json:"cell"`
	Score float64      `json:"score"`
}
