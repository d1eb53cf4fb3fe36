package hexgrid

import (
	"errors"
	"testing"
)

func TestParseCell_KnownIndex(t *testing.T) {
	c, err := ParseCell("8928308280fffff")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := c.Resolution(); got != 9 {
		t.Fatalf("resolution = %d, want 9", got)
	}
	if got := c.BaseCell(); got != 20 {
		t.Fatalf("base cell = %d, want 20", got)
	}
	if isBaseCellPentagon(c.BaseCell()) {
		t.Fatalf("base cell 20 must not be a pentagon")
	}
	if c.IsPentagon() {
		t.Fatalf("expected hexagon")
	}
	if !c.IsClassIII() {
		t.Fatalf("resolution 9 is class III")
	}
	if c.String() != "8928308280fffff" {
		t.Fatalf("String = %q", c.String())
	}
}

func TestParseCell_Canonical(t *testing.T) {
	for in, want := range map[string]string{
		"8928308280FFFFF":  "8928308280fffff",
		"08928308280fffff": "8928308280fffff",
		"8001fffffffffff":  "8001fffffffffff",
	} {
		c, err := ParseCell(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if c.String() != want {
			t.Fatalf("parse %q: got %q want %q", in, c.String(), want)
		}
		back, err := ParseCell(c.String())
		if err != nil || back != c {
			t.Fatalf("round trip %q: %v %v", in, back, err)
		}
	}
}

func TestParseCell_RejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"not hex":          "89283082zzfffff",
		"too long":         "8928308280fffff00",
		"zero":             "0",
		"edge mode":        "115283473fffffff",
		"base cell 122":    "80f5fffffffffff",
		"unused digit set": "8928308280ffff0",
		"reserved bits":    "9928308280fffff",
		"high bit":         "88928308280fffff",
	}
	cases["missing digit"] = MustParseCell("8928308280fffff").setDigit(9, InvalidDigit).String()

	for name, s := range cases {
		if _, err := ParseCell(s); !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("%s (%q): want ErrInvalidFormat, got %v", name, s, err)
		}
	}
}

func TestIsValid_PentagonDeletedDigit(t *testing.T) {
	pent := newCell(1, 4)
	if pent.setDigit(1, KAxesDigit).IsValid() {
		t.Fatalf("k digit under a pentagon base cell must be invalid")
	}
	if !pent.setDigit(1, JAxesDigit).IsValid() {
		t.Fatalf("j digit under a pentagon base cell must be valid")
	}
	// k is allowed once a non-center digit has led the way
	deep := newCell(2, 4).setDigit(1, JAxesDigit).setDigit(2, KAxesDigit)
	if !deep.IsValid() {
		t.Fatalf("k after a leading j must be valid")
	}
	hex := newCell(1, 0).setDigit(1, KAxesDigit)
	if !hex.IsValid() {
		t.Fatalf("k under a hexagon base cell must be valid")
	}
}

func TestBaseCells_ValidAndTwelvePentagons(t *testing.T) {
	pents := 0
	for _, c := range BaseCells() {
		if !c.IsValid() {
			t.Fatalf("base cell %s invalid", c)
		}
		if c.IsPentagon() {
			pents++
		}
	}
	if pents != NumPentagons {
		t.Fatalf("pentagons = %d, want %d", pents, NumPentagons)
	}
	for res := 0; res <= MaxResolution; res++ {
		ps, err := Pentagons(res)
		if err != nil {
			t.Fatalf("pentagons res %d: %v", res, err)
		}
		for _, p := range ps {
			if !p.IsValid() || !p.IsPentagon() || p.Resolution() != res {
				t.Fatalf("bad pentagon %s at res %d", p, res)
			}
		}
	}
}

func TestCell_TextMarshal(t *testing.T) {
	var c Cell
	if err := c.UnmarshalText([]byte("85283473fffffff")); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b, _ := c.MarshalText()
	if string(b) != "85283473fffffff" {
		t.Fatalf("marshal = %s", b)
	}
	if err := c.UnmarshalText([]byte("nope")); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("want ErrInvalidFormat, got %v", err)
	}
}

func TestRotations_Inverse(t *testing.T) {
	c := MustParseCell("8928308280fffff")
	if c.rotate60ccw().rotate60cw() != c {
		t.Fatalf("ccw then cw must be identity")
	}
	r := c
	for i := 0; i < 6; i++ {
		r = r.rotate60ccw()
	}
	if r != c {
		t.Fatalf("six ccw rotations must be identity")
	}
	for d := KAxesDigit; d < InvalidDigit; d++ {
		if d.rotate60ccw().rotate60cw() != d {
			t.Fatalf("digit %s rotation not inverse", d)
		}
	}
}

func TestKindOf(t *testing.T) {
	_, err := ParseCell("xyz")
	if KindOf(err) != KindInvalidFormat {
		t.Fatalf("kind = %q", KindOf(err))
	}
	_, err = LatLngToCell(LatLng{Lat: 0, Lng: 0}, 16)
	if KindOf(err) != KindInvalidResolution {
		t.Fatalf("kind = %q", KindOf(err))
	}
	if KindOf(nil) != KindNone {
		t.Fatalf("nil must map to KindNone")
	}
	if KindOf(errors.New("x")) != KindInternal {
		t.Fatalf("foreign errors map to KindInternal")
	}
}
