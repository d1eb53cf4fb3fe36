package hexgrid

import "fmt"

// LatLngToCell returns the cell at res containing ll.
func LatLngToCell(ll LatLng, res int) (Cell, error) {
	if !validResolution(res) {
		return 0, resolutionError("latlng to cell", res)
	}
	if err := ll.validate(); err != nil {
		return 0, err
	}
	c := faceIJKToCell(geoToFaceIJK(ll.toGeo(), res), res)
	if c == 0 {
		return 0, fmt.Errorf("latlng to cell: %w: %v has no cell", ErrInvalidCoordinate, ll)
	}
	return c, nil
}

// LatLng returns the center of the cell.
func (c Cell) LatLng() (LatLng, error) {
	if err := c.check("cell to latlng"); err != nil {
		return LatLng{}, err
	}
	return c.center().toLatLng(), nil
}

// LngLat returns the center as a longitude-first pair.
func (c Cell) LngLat() ([2]float64, error) {
	ll, err := c.LatLng()
	if err != nil {
		return [2]float64{}, err
	}
	return [2]float64{ll.Lng, ll.Lat}, nil
}

func (c Cell) center() geoPoint {
	return cellToFaceIJK(c).toGeo(c.Resolution())
}

// faceIJKToCell builds the cell at res holding f. It walks up from res to
// the base cell collecting one digit per level, then rotates the digits
// into the base cell's own frame. Zero means f is off the grid.
func faceIJKToCell(f faceIJK, res int) Cell {
	c := newCell(res, 0)
	coord := f.coord

	if res == 0 {
		if coord.maxComponent() > maxFaceCoord {
			return 0
		}
		return c.setBaseCell(faceIjkBaseCells[f.face][coord.i][coord.j][coord.k].baseCell)
	}

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
		c = c.setDigit(r+1, last.sub(lastCenter).unitDigit())
	}

	if coord.maxComponent() > maxFaceCoord {
		return 0
	}

	rot := faceIjkBaseCells[f.face][coord.i][coord.j][coord.k]
	c = c.setBaseCell(rot.baseCell)

	if isBaseCellPentagon(rot.baseCell) {
		// the deleted k subsequence rotates out toward the face's offset side
		if c.leadingDigit() == KAxesDigit {
			if baseCellIsCwOffset(rot.baseCell, f.face) {
				c = c.rotate60cw()
			} else {
				c = c.rotate60ccw()
			}
		}
		for i := 0; i < rot.ccwRot60; i++ {
			c = c.rotatePent60ccw()
		}
	} else {
		for i := 0; i < rot.ccwRot60; i++ {
			c = c.rotate60ccw()
		}
	}
	return c
}

// walkDigits applies the digits of c to a starting coordinate, finest
// last. It reports whether the result may have run off the home face.
func (c Cell) walkDigits(coord coordIJK) (coordIJK, bool) {
	res := c.Resolution()
	possibleOverage := true
	if !isBaseCellPentagon(c.BaseCell()) && (res == 0 || coord == (coordIJK{})) {
		possibleOverage = false
	}
	for r := 1; r <= res; r++ {
		if IsClassIII(r) {
			coord = coord.downAp7()
		} else {
			coord = coord.downAp7r()
		}
		coord = coord.neighbor(c.digit(r))
	}
	return coord, possibleOverage
}

// cellToFaceIJK locates c on the face that holds its center.
func cellToFaceIJK(c Cell) faceIJK {
	bc := c.BaseCell()
	pent := isBaseCellPentagon(bc)

	// the ik pentagon sub-sequence sits on the far side of the deleted axis
	if pent && c.leadingDigit() == IKAxesDigit {
		c = c.rotate60cw()
	}

	home := baseCellData[bc].homeFijk
	coord, possibleOverage := c.walkDigits(home.coord)
	fijk := faceIJK{face: home.face, coord: coord}
	if !possibleOverage {
		return fijk
	}

	orig := fijk.coord
	res := c.Resolution()
	if IsClassIII(res) {
		// work in the class II grid one level down
		fijk.coord = fijk.coord.downAp7r()
		res++
	}

	pentLeading4 := pent && c.leadingDigit() == IAxesDigit
	if fijk.adjustOverageClassII(res, pentLeading4, false) != noOverage {
		if pent {
			for fijk.adjustOverageClassII(res, false, false) != noOverage {
			}
		}
		if res != c.Resolution() {
			fijk.coord = fijk.coord.upAp7r()
		}
	} else if res != c.Resolution() {
		fijk.coord = orig
	}
	return fijk
}
