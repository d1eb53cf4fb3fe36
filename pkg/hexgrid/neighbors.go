package hexgrid

import "fmt"

// neighborRotations returns the neighbor of origin in direction dir, after
// first rotating dir ccw by rotations. The returned count is the number of
// ccw rotations that carry directions from origin's frame into the
// neighbor's frame.
func neighborRotations(origin Cell, dir Direction, rotations int) (Cell, int, error) {
	if dir <= CenterDigit || dir >= InvalidDigit {
		return 0, 0, fmt.Errorf("neighbor: %w: direction %d", ErrInvalidFormat, dir)
	}
	rotations %= 6
	for i := 0; i < rotations; i++ {
		dir = dir.rotate60ccw()
	}

	out := origin
	newRotations := 0
	oldBaseCell := origin.BaseCell()
	oldLeading := origin.leadingDigit()

	// walk up until the move stays inside a parent or reaches base cells
	r := origin.Resolution() - 1
	for {
		if r == -1 {
			nbc := baseCellNeighbors[oldBaseCell][dir]
			newRotations = baseCellNeighbor60CCWRots[oldBaseCell][dir]
			if nbc == invalidBaseCell {
				// moving into the deleted k subsequence of a pentagon
				nbc = baseCellNeighbors[oldBaseCell][IKAxesDigit]
				newRotations = baseCellNeighbor60CCWRots[oldBaseCell][IKAxesDigit]
				out = out.setBaseCell(nbc).rotate60ccw()
				rotations++
			} else {
				out = out.setBaseCell(nbc)
			}
			break
		}

		old := out.digit(r + 1)
		var next Direction
		if IsClassIII(r + 1) {
			out = out.setDigit(r+1, newDigitClassIII[old][dir])
			next = newAdjustmentClassIII[old][dir]
		} else {
			out = out.setDigit(r+1, newDigitClassII[old][dir])
			next = newAdjustmentClassII[old][dir]
		}
		if next == CenterDigit {
			break
		}
		dir = next
		r--
	}

	newBaseCell := out.BaseCell()
	if isBaseCellPentagon(newBaseCell) {
		alreadyAdjustedK := false

		if out.leadingDigit() == KAxesDigit {
			if oldBaseCell != newBaseCell {
				// entered the pentagon through its deleted subsequence
				if baseCellIsCwOffset(newBaseCell, baseCellData[oldBaseCell].homeFijk.face) {
					out = out.rotate60cw()
				} else {
					out = out.rotate60ccw()
				}
				alreadyAdjustedK = true
			} else {
				switch oldLeading {
				case CenterDigit:
					return 0, 0, relationError("neighbor", "%s has no neighbor in direction k", origin)
				case JKAxesDigit:
					out = out.rotate60ccw()
					rotations++
				case IKAxesDigit:
					out = out.rotate60cw()
					rotations += 5
				default:
					return 0, 0, fmt.Errorf("neighbor: %w: unexpected leading digit %d", ErrInvalidFormat, oldLeading)
				}
			}
		}

		for i := 0; i < newRotations; i++ {
			out = out.rotatePent60ccw()
		}

		if oldBaseCell != newBaseCell {
			if isBaseCellPolarPentagon(newBaseCell) {
				if oldBaseCell != 118 && oldBaseCell != 8 && out.leadingDigit() != JKAxesDigit {
					rotations++
				}
			} else if out.leadingDigit() == IKAxesDigit && !alreadyAdjustedK {
				rotations++
			}
		}
	} else {
		for i := 0; i < newRotations; i++ {
			out = out.rotate60ccw()
		}
	}

	return out, (rotations + newRotations) % 6, nil
}

// Neighbors returns the cells sharing an edge with c, six for hexagons and
// five for pentagons, in direction order.
func (c Cell) Neighbors() ([]Cell, error) {
	if err := c.check("neighbors"); err != nil {
		return nil, err
	}
	return c.neighbors(), nil
}

func (c Cell) neighbors() []Cell {
	out := make([]Cell, 0, 6)
	for d := KAxesDigit; d < InvalidDigit; d++ {
		n, _, err := neighborRotations(c, d, 0)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// neighborDirection returns the direction from origin to an adjacent cell.
func neighborDirection(origin, dest Cell) Direction {
	for d := KAxesDigit; d < InvalidDigit; d++ {
		n, _, err := neighborRotations(origin, d, 0)
		if err == nil && n == dest {
			return d
		}
	}
	return InvalidDigit
}

// AreNeighbors reports whether a and b share an edge.
func AreNeighbors(a, b Cell) (bool, error) {
	if err := a.check("are neighbors"); err != nil {
		return false, err
	}
	if err := b.check("are neighbors"); err != nil {
		return false, err
	}
	if a == b || a.Resolution() != b.Resolution() {
		return false, nil
	}
	return neighborDirection(a, b) != InvalidDigit, nil
}

// GridDisk returns every cell within k steps of origin, origin first and
// then ring by ring.
func GridDisk(origin Cell, k int) ([]Cell, error) {
	rings, err := GridDiskDistances(origin, k)
	if err != nil {
		return nil, err
	}
	var out []Cell
	for _, ring := range rings {
		out = append(out, ring...)
	}
	return out, nil
}

// GridDiskDistances returns the cells within k steps of origin grouped by
// distance: element i holds the cells exactly i steps away.
func GridDiskDistances(origin Cell, k int) ([][]Cell, error) {
	if err := origin.check("grid disk"); err != nil {
		return nil, err
	}
	if k < 0 {
		return nil, fmt.Errorf("grid disk: %w: negative k %d", ErrInvalidFormat, k)
	}
	seen := map[Cell]struct{}{origin: {}}
	rings := [][]Cell{{origin}}
	for i := 0; i < k; i++ {
		var next []Cell
		for _, c := range rings[i] {
			for _, n := range c.neighbors() {
				if _, ok := seen[n]; ok {
					continue
				}
				seen[n] = struct{}{}
				next = append(next, n)
			}
		}
		if len(next) == 0 {
			break
		}
		rings = append(rings, next)
	}
	return rings, nil
}
