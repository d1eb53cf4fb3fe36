package hexgrid

import (
	"strconv"
)

// Cell is a 64-bit grid address. From the high bit down: one reserved bit,
// a 4 bit mode, 3 reserved bits (edge direction for directed edges), a
// 4 bit resolution, a 7 bit base cell, then fifteen 3 bit digits for
// resolutions 1..15. Digits past the resolution hold 7.
type Cell uint64

const (
	modeCell uint64 = 1
	modeEdge uint64 = 2

	highBitOffset  = 63
	modeOffset     = 59
	reservedOffset = 56
	resOffset      = 52
	baseCellOffset = 45
	digitBits      = 3

	highBitMask  = uint64(1) << highBitOffset
	modeMask     = uint64(15) << modeOffset
	reservedMask = uint64(7) << reservedOffset
	resMask      = uint64(15) << resOffset
	baseCellMask = uint64(127) << baseCellOffset
	digitMask    = uint64(7)

	// all fifteen digits unused
	digitsUnused = uint64(1)<<baseCellOffset - 1
)

func newCell(res, baseCell int) Cell {
	v := modeCell<<modeOffset | uint64(res)<<resOffset | uint64(baseCell)<<baseCellOffset | digitsUnused
	return Cell(v)
}

func digitShift(r int) uint { return uint((MaxResolution - r) * digitBits) }

func (c Cell) mode() uint64 { return (uint64(c) & modeMask) >> modeOffset }

// Resolution returns the resolution field.
func (c Cell) Resolution() int { return int((uint64(c) & resMask) >> resOffset) }

// BaseCell returns the base cell number.
func (c Cell) BaseCell() int { return int((uint64(c) & baseCellMask) >> baseCellOffset) }

func (c Cell) digit(r int) Direction {
	return Direction((uint64(c) >> digitShift(r)) & digitMask)
}

func (c Cell) setDigit(r int, d Direction) Cell {
	sh := digitShift(r)
	return Cell(uint64(c)&^(digitMask<<sh) | uint64(d)<<sh)
}

func (c Cell) setBaseCell(bc int) Cell {
	return Cell(uint64(c)&^baseCellMask | uint64(bc)<<baseCellOffset)
}

func (c Cell) setResolution(res int) Cell {
	return Cell(uint64(c)&^resMask | uint64(res)<<resOffset)
}

// IsValid checks every layout rule: cell mode, zero reserved bits, a
// known base cell, real digits up to the resolution and unused digits
// after it, and no k digit leading a pentagon lineage.
func (c Cell) IsValid() bool {
	v := uint64(c)
	if v&highBitMask != 0 || c.mode() != modeCell || v&reservedMask != 0 {
		return false
	}
	bc := c.BaseCell()
	if bc >= numBaseCells {
		return false
	}
	res := c.Resolution()
	pent := isBaseCellPentagon(bc)
	leading := true
	for r := 1; r <= res; r++ {
		d := c.digit(r)
		if d == InvalidDigit {
			return false
		}
		if leading && d != CenterDigit {
			leading = false
			if pent && d == KAxesDigit {
				return false
			}
		}
	}
	for r := res + 1; r <= MaxResolution; r++ {
		if c.digit(r) != InvalidDigit {
			return false
		}
	}
	return true
}

// IsPentagon reports whether the cell is one of the twelve pentagons at
// its resolution.
func (c Cell) IsPentagon() bool {
	return isBaseCellPentagon(c.BaseCell()) && c.leadingDigit() == CenterDigit
}

// IsClassIII reports whether the cell's resolution is odd.
func (c Cell) IsClassIII() bool { return IsClassIII(c.Resolution()) }

// leadingDigit is the first non-center digit, or CenterDigit.
func (c Cell) leadingDigit() Direction {
	for r := 1; r <= c.Resolution(); r++ {
		if d := c.digit(r); d != CenterDigit {
			return d
		}
	}
	return CenterDigit
}

func (c Cell) rotate60ccw() Cell {
	for r := 1; r <= c.Resolution(); r++ {
		c = c.setDigit(r, c.digit(r).rotate60ccw())
	}
	return c
}

func (c Cell) rotate60cw() Cell {
	for r := 1; r <= c.Resolution(); r++ {
		c = c.setDigit(r, c.digit(r).rotate60cw())
	}
	return c
}

// rotatePent60ccw rotates a pentagon-lineage cell, skipping over the
// deleted k subsequence.
func (c Cell) rotatePent60ccw() Cell {
	found := false
	for r := 1; r <= c.Resolution(); r++ {
		c = c.setDigit(r, c.digit(r).rotate60ccw())
		if !found && c.digit(r) != CenterDigit {
			found = true
			if c.leadingDigit() == KAxesDigit {
				c = c.rotate60ccw()
			}
		}
	}
	return c
}

func (c Cell) rotatePent60cw() Cell {
	found := false
	for r := 1; r <= c.Resolution(); r++ {
		c = c.setDigit(r, c.digit(r).rotate60cw())
		if !found && c.digit(r) != CenterDigit {
			found = true
			if c.leadingDigit() == KAxesDigit {
				c = c.rotate60cw()
			}
		}
	}
	return c
}

// String renders the canonical lowercase hex form.
func (c Cell) String() string { return strconv.FormatUint(uint64(c), 16) }

// ParseCell decodes 1 to 16 hex digits, in either case, into a valid Cell.
func ParseCell(s string) (Cell, error) {
	v, err := parseHex64("cell", s)
	if err != nil {
		return 0, err
	}
	c := Cell(v)
	if !c.IsValid() {
		return 0, formatError("cell", "%q is not a valid cell", s)
	}
	return c, nil
}

// MustParseCell is ParseCell for constants in tests and tables.
func MustParseCell(s string) Cell {
	c, err := ParseCell(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseHex64(op, s string) (uint64, error) {
	if len(s) == 0 || len(s) > 16 {
		return 0, formatError(op, "%q must be 1 to 16 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, formatError(op, "%q is not hex", s)
	}
	return v, nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Cell) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Cell) UnmarshalText(b []byte) error {
	v, err := ParseCell(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c Cell) check(op string) error {
	if !c.IsValid() {
		return formatError(op, "%#x is not a valid cell", uint64(c))
	}
	return nil
}
