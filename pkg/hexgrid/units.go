package hexgrid

import "fmt"

// LengthUnit selects the unit of a distance.
type LengthUnit string

const (
	Kilometers LengthUnit = "km"
	Meters     LengthUnit = "m"
	Radians    LengthUnit = "rads"
)

// AreaUnit selects the unit of an area.
type AreaUnit string

const (
	SquareKilometers AreaUnit = "km2"
	SquareMeters     AreaUnit = "m2"
	Steradians       AreaUnit = "rads2"
)

// ParseLengthUnit accepts km, m or rads.
func ParseLengthUnit(s string) (LengthUnit, error) {
	switch u := LengthUnit(s); u {
	case Kilometers, Meters, Radians:
		return u, nil
	}
	return "", fmt.Errorf("length unit: %w: %q, use km, m or rads", ErrInvalidUnit, s)
}

// ParseAreaUnit accepts km2, m2 or rads2.
func ParseAreaUnit(s string) (AreaUnit, error) {
	switch u := AreaUnit(s); u {
	case SquareKilometers, SquareMeters, Steradians:
		return u, nil
	}
	return "", fmt.Errorf("area unit: %w: %q, use km2, m2 or rads2", ErrInvalidUnit, s)
}

// fromRadians converts an angle on the sphere to a length.
func (u LengthUnit) fromRadians(rads float64) (float64, error) {
	switch u {
	case Kilometers:
		return rads * EarthRadiusKm, nil
	case Meters:
		return rads * EarthRadiusKm * 1000, nil
	case Radians:
		return rads, nil
	}
	return 0, fmt.Errorf("length unit: %w: %q", ErrInvalidUnit, string(u))
}

// fromSteradians converts a solid angle to an area.
func (u AreaUnit) fromSteradians(sr float64) (float64, error) {
	switch u {
	case SquareKilometers:
		return sr * EarthRadiusKm * EarthRadiusKm, nil
	case SquareMeters:
		return sr * EarthRadiusKm * EarthRadiusKm * 1e6, nil
	case Steradians:
		return sr, nil
	}
	return 0, fmt.Errorf("area unit: %w: %q", ErrInvalidUnit, string(u))
}

// GreatCircleDistance returns the distance between two points.
func GreatCircleDistance(a, b LatLng, unit LengthUnit) (float64, error) {
	if err := a.validate(); err != nil {
		return 0, err
	}
	if err := b.validate(); err != nil {
		return 0, err
	}
	return unit.fromRadians(greatCircleRads(a.toGeo(), b.toGeo()))
}
