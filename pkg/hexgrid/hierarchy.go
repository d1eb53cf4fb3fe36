package hexgrid

// Parent returns the ancestor of c at res. res must not be finer than c.
func (c Cell) Parent(res int) (Cell, error) {
	if err := c.check("parent"); err != nil {
		return 0, err
	}
	if !validResolution(res) {
		return 0, resolutionError("parent", res)
	}
	if res > c.Resolution() {
		return 0, relationError("parent", "resolution %d is finer than cell resolution %d", res, c.Resolution())
	}
	p := c.setResolution(res)
	for r := res + 1; r <= MaxResolution; r++ {
		p = p.setDigit(r, InvalidDigit)
	}
	return p, nil
}

// CenterChild returns the descendant of c at res that shares its center.
func (c Cell) CenterChild(res int) (Cell, error) {
	if err := c.childRange("center child", res); err != nil {
		return 0, err
	}
	child := c.setResolution(res)
	for r := c.Resolution() + 1; r <= res; r++ {
		child = child.setDigit(r, CenterDigit)
	}
	return child, nil
}

// childPrealloc caps the slice capacity Children reserves up front.
const childPrealloc = 1 << 16

// Children returns every descendant of c at res. The order is stable:
// digits ascend, most significant first. The result holds ChildCount(res)
// cells, up to 7^15 for a resolution 0 cell at resolution 15; check
// ChildCount first or use EachChild to stream large sets.
func (c Cell) Children(res int) ([]Cell, error) {
	if err := c.childRange("children", res); err != nil {
		return nil, err
	}
	n, _ := c.ChildCount(res)
	out := make([]Cell, 0, min(n, childPrealloc))
	err := c.EachChild(res, func(child Cell) bool {
		out = append(out, child)
		return true
	})
	return out, err
}

// EachChild calls fn for every descendant of c at res in Children order
// without materializing the set. Iteration stops when fn returns false.
func (c Cell) EachChild(res int, fn func(Cell) bool) error {
	if err := c.childRange("children", res); err != nil {
		return err
	}
	top := c.Resolution()
	pent := c.IsPentagon()
	digits := make([]Direction, res-top)
	base := c.setResolution(res)
	for {
		child := base
		for i, d := range digits {
			child = child.setDigit(top+1+i, d)
		}
		if !fn(child) {
			return nil
		}

		// odometer step, least significant digit first
		i := len(digits) - 1
		for ; i >= 0; i-- {
			digits[i]++
			if digits[i] == KAxesDigit && pent && allCenter(digits[:i]) {
				digits[i]++
			}
			if digits[i] < InvalidDigit {
				break
			}
			digits[i] = CenterDigit
		}
		if i < 0 {
			return nil
		}
	}
}

// allCenter reports whether every digit is the center digit, meaning the
// lineage so far is still the pentagon itself.
func allCenter(ds []Direction) bool {
	for _, d := range ds {
		if d != CenterDigit {
			return false
		}
	}
	return true
}

// ChildCount returns the number of descendants of c at res.
func (c Cell) ChildCount(res int) (int64, error) {
	if err := c.childRange("child count", res); err != nil {
		return 0, err
	}
	n := int64(1)
	for r := c.Resolution(); r < res; r++ {
		n *= 7
	}
	if c.IsPentagon() {
		// one pentagon plus five hexagon lineages per level
		return 1 + 5*(n-1)/6, nil
	}
	return n, nil
}

func (c Cell) childRange(op string, res int) error {
	if err := c.check(op); err != nil {
		return err
	}
	if !validResolution(res) {
		return resolutionError(op, res)
	}
	if res < c.Resolution() {
		return relationError(op, "resolution %d is coarser than cell resolution %d", res, c.Resolution())
	}
	return nil
}
