// Package decision chooses which coverages are written to the shared tier.
package decision

import "github.com/mohammed-shakir/hexgrid/pkg/hexgrid"

type Interface interface {
	ShouldShare(cells []hexgrid.Cell) bool
}

// Always shares every coverage.
type Always struct{}

func (Always) ShouldShare([]hexgrid.Cell) bool { return true }
