package hexgrid

// Rotations needed to undo pentagon distortion, indexed by leading digit
// and then by direction. -1 entries cannot occur.
var pentagonRotations = [7][7]int{
	{0, -1, 0, 0, 0, 0, 0},
	{-1, -1, -1, -1, -1, -1, -1},
	{0, -1, 0, 0, 0, 1, 0},
	{0, -1, 0, 0, 1, 1, 0},
	{0, -1, 0, 5, 0, 0, 0},
	{0, -1, 5, 5, 0, 0, 0},
	{0, -1, 0, 0, 0, 0, 0},
}

// Reverse tables for building a cell from local coordinates.
var (
	pentagonRotationsReverse = [7][7]int{
		{0, 0, 0, 0, 0, 0, 0},
		{-1, -1, -1, -1, -1, -1, -1},
		{0, 1, 0, 0, 0, 0, 0},
		{0, 1, 0, 0, 0, 1, 0},
		{0, 5, 0, 0, 0, 0, 0},
		{0, 5, 0, 5, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0},
	}
	pentagonRotationsReverseNonPolar = [7][7]int{
		{0, 0, 0, 0, 0, 0, 0},
		{-1, -1, -1, -1, -1, -1, -1},
		{0, 1, 0, 0, 0, 0, 0},
		{0, 1, 0, 0, 0, 1, 0},
		{0, 5, 0, 0, 0, 0, 0},
		{0, 1, 0, 5, 1, 1, 0},
		{0, 0, 0, 0, 0, 0, 0},
	}
	pentagonRotationsReversePolar = [7][7]int{
		{0, 0, 0, 0, 0, 0, 0},
		{-1, -1, -1, -1, -1, -1, -1},
		{0, 1, 1, 1, 1, 1, 1},
		{0, 1, 0, 0, 0, 1, 0},
		{0, 1, 0, 0, 1, 1, 1},
		{0, 1, 0, 5, 1, 1, 0},
		{0, 1, 1, 0, 1, 1, 1},
	}
)

// Leading digit / direction pairs that cross a pentagon's deleted
// subsequence and have no consistent local frame.
var failedDirections = [7][7]bool{
	{},
	{},
	{4: true, 5: true},
	{4: true, 6: true},
	{2: true, 3: true},
	{2: true, 6: true},
	{3: true, 5: true},
}

// CellToLocalIJ returns the position of c in the local frame anchored at
// origin's base cell. Both cells must share a resolution and sit on the
// same or neighboring base cells; pentagon distortion can still leave a
// pair without a consistent frame.
func CellToLocalIJ(origin, c Cell) (CoordIJ, error) {
	if err := origin.check("cell to local ij"); err != nil {
		return CoordIJ{}, err
	}
	if err := c.check("cell to local ij"); err != nil {
		return CoordIJ{}, err
	}
	ijk, err := cellToLocalIJK(origin, c)
	if err != nil {
		return CoordIJ{}, err
	}
	return ijk.toIJ(), nil
}

func cellToLocalIJK(origin, c Cell) (coordIJK, error) {
	res := origin.Resolution()
	if res != c.Resolution() {
		return coordIJK{}, relationError("cell to local ij", "resolution %d differs from origin resolution %d", c.Resolution(), res)
	}

	originBaseCell := origin.BaseCell()
	baseCell := c.BaseCell()

	dir := CenterDigit
	revDir := CenterDigit
	if originBaseCell != baseCell {
		dir = baseCellDirection(originBaseCell, baseCell)
		if dir == InvalidDigit {
			return coordIJK{}, relationError("cell to local ij", "%s is too far from %s", c, origin)
		}
		revDir = baseCellDirection(baseCell, originBaseCell)
	}

	originOnPent := isBaseCellPentagon(originBaseCell)
	indexOnPent := isBaseCellPentagon(baseCell)

	if dir != CenterDigit {
		// rotate c into the orientation of the origin base cell
		rots := baseCellNeighbor60CCWRots[originBaseCell][dir]
		for i := 0; i < rots; i++ {
			if indexOnPent {
				c = c.rotatePent60cw()
				revDir = revDir.rotate60cw()
				if revDir == KAxesDigit {
					revDir = revDir.rotate60cw()
				}
			} else {
				c = c.rotate60cw()
				revDir = revDir.rotate60cw()
			}
		}
	}

	// coordinates relative to c's base cell center
	coord, _ := c.walkDigits(coordIJK{})

	switch {
	case dir != CenterDigit:
		pentRots, dirRots := 0, 0
		if originOnPent {
			lead := origin.leadingDigit()
			if failedDirections[lead][dir] {
				return coordIJK{}, relationError("cell to local ij", "%s crosses a pentagon seam from %s", c, origin)
			}
			dirRots = pentagonRotations[lead][dir]
			pentRots = dirRots
		} else if indexOnPent {
			lead := c.leadingDigit()
			if failedDirections[lead][revDir] {
				return coordIJK{}, relationError("cell to local ij", "%s crosses a pentagon seam from %s", c, origin)
			}
			pentRots = pentagonRotations[revDir][lead]
		}
		if pentRots < 0 || dirRots < 0 {
			return coordIJK{}, relationError("cell to local ij", "%s crosses a pentagon seam from %s", c, origin)
		}
		for i := 0; i < pentRots; i++ {
			coord = coord.rotate60cw()
		}

		// offset of the neighboring base cell, scaled down to res
		offset := unitVecs[dir]
		for r := res - 1; r >= 0; r-- {
			if IsClassIII(r + 1) {
				offset = offset.downAp7()
			} else {
				offset = offset.downAp7r()
			}
		}
		for i := 0; i < dirRots; i++ {
			offset = offset.rotate60cw()
		}
		coord = coord.add(offset).normalize()

	case originOnPent && indexOnPent:
		// same pentagon base cell
		originLead := origin.leadingDigit()
		lead := c.leadingDigit()
		if failedDirections[originLead][lead] {
			return coordIJK{}, relationError("cell to local ij", "%s crosses a pentagon seam from %s", c, origin)
		}
		rots := pentagonRotations[originLead][lead]
		if rots < 0 {
			return coordIJK{}, relationError("cell to local ij", "%s crosses a pentagon seam from %s", c, origin)
		}
		for i := 0; i < rots; i++ {
			coord = coord.rotate60cw()
		}
	}
	return coord, nil
}

// LocalIJToCell is the inverse of CellToLocalIJ for the frame anchored at
// origin.
func LocalIJToCell(origin Cell, ij CoordIJ) (Cell, error) {
	if err := origin.check("local ij to cell"); err != nil {
		return 0, err
	}
	c, ok := localIJKToCell(origin, ij.toIJK())
	if !ok {
		return 0, relationError("local ij to cell", "(%d, %d) is outside the frame of %s", ij.I, ij.J, origin)
	}
	return c, nil
}

func localIJKToCell(origin Cell, ijk coordIJK) (Cell, bool) {
	res := origin.Resolution()
	originBaseCell := origin.BaseCell()
	originOnPent := isBaseCellPentagon(originBaseCell)

	out := newCell(res, 0)

	if res == 0 {
		dir := ijk.unitDigit()
		if dir == InvalidDigit {
			return 0, false
		}
		nbc := baseCellNeighbors[originBaseCell][dir]
		if nbc == invalidBaseCell {
			return 0, false
		}
		return out.setBaseCell(nbc), true
	}

	// digits from the finest resolution up, as in faceIJKToCell
	coord := ijk
	for r := res - 1; r >= 0; r-- {
		last := coord
		var lastCenter coordIJK
		if IsClassIII(r + 1) {
			coord = coord.upAp7()
			lastCenter = coord.downAp7()
		} else {
			coord = coord.upAp7r()
			lastCenter = coord.downAp7r()
		}
		out = out.setDigit(r+1, last.sub(lastCenter).unitDigit())
	}

	if coord.maxComponent() > 1 {
		return 0, false
	}

	dir := coord.unitDigit()
	baseCell := baseCellNeighbors[originBaseCell][dir]
	indexOnPent := baseCell != invalidBaseCell && isBaseCellPentagon(baseCell)

	if dir != CenterDigit {
		pentRots := 0
		if originOnPent {
			pentRots = pentagonRotationsReverse[origin.leadingDigit()][dir]
			if pentRots < 0 {
				return 0, false
			}
			for i := 0; i < pentRots; i++ {
				dir = dir.rotate60ccw()
			}
			if dir == KAxesDigit {
				return 0, false
			}
			baseCell = baseCellNeighbors[originBaseCell][dir]
			if baseCell == invalidBaseCell {
				return 0, false
			}
		}

		baseCellRots := baseCellNeighbor60CCWRots[originBaseCell][dir]
		if baseCellRots < 0 {
			return 0, false
		}

		if indexOnPent {
			revDir := baseCellDirection(baseCell, originBaseCell)
			if revDir == InvalidDigit {
				return 0, false
			}
			for i := 0; i < baseCellRots; i++ {
				out = out.rotate60ccw()
			}
			lead := out.leadingDigit()
			if isBaseCellPolarPentagon(baseCell) {
				pentRots = pentagonRotationsReversePolar[revDir][lead]
			} else {
				pentRots = pentagonRotationsReverseNonPolar[revDir][lead]
			}
			if pentRots < 0 {
				return 0, false
			}
			for i := 0; i < pentRots; i++ {
				out = out.rotatePent60ccw()
			}
		} else {
			for i := 0; i < pentRots; i++ {
				out = out.rotate60ccw()
			}
			for i := 0; i < baseCellRots; i++ {
				out = out.rotate60ccw()
			}
		}
	} else if originOnPent && indexOnPent {
		rots := pentagonRotationsReverse[origin.leadingDigit()][out.leadingDigit()]
		if rots < 0 {
			return 0, false
		}
		for i := 0; i < rots; i++ {
			out = out.rotate60ccw()
		}
	}

	if indexOnPent && out.leadingDigit() == KAxesDigit {
		return 0, false
	}
	out = out.setBaseCell(baseCell)
	return out, out.IsValid()
}
