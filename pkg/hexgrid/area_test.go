package hexgrid

import (
	"errors"
	"math"
	"testing"
)

func TestCellArea_SumsToSphere(t *testing.T) {
	for res := 0; res <= 1; res++ {
		var sum float64
		for _, c := range allCells(t, res) {
			a, err := c.Area(Steradians)
			if err != nil {
				t.Fatalf("area(%s): %v", c, err)
			}
			sum += a
		}
		if math.Abs(sum-4*math.Pi) > 1e-9 {
			t.Fatalf("res %d: areas sum to %v, want 4π", res, sum)
		}
	}
}

func TestCellArea_Known(t *testing.T) {
	c := MustParseCell("8928308280fffff")
	km2, err := c.Area(SquareKilometers)
	if err != nil {
		t.Fatalf("area: %v", err)
	}
	if math.Abs(km2-0.10939818798784541) > 1e-9 {
		t.Fatalf("area = %v km2", km2)
	}
	m2, _ := c.Area(SquareMeters)
	if math.Abs(m2-km2*1e6) > 1e-3 {
		t.Fatalf("m2 = %v", m2)
	}
}

func TestCellArea_ShrinksWithResolution(t *testing.T) {
	c := MustParseCell("8f28308280f18f2")
	prev := math.Inf(1)
	for r := 0; r <= c.Resolution(); r++ {
		p, _ := c.Parent(r)
		a, _ := p.Area(Steradians)
		if a <= 0 || a >= prev {
			t.Fatalf("res %d area %v not below %v", r, a, prev)
		}
		prev = a
	}
}

func TestCellArea_Errors(t *testing.T) {
	c := MustParseCell("8928308280fffff")
	if _, err := c.Area(AreaUnit("acres")); !errors.Is(err, ErrInvalidUnit) {
		t.Fatalf("want ErrInvalidUnit, got %v", err)
	}
	if _, err := ParseAreaUnit("km"); !errors.Is(err, ErrInvalidUnit) {
		t.Fatalf("want ErrInvalidUnit, got %v", err)
	}
	if _, err := Cell(0).Area(Steradians); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("want ErrInvalidFormat, got %v", err)
	}
}
