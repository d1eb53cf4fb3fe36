package hexgrid

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// LatLng is a point on the sphere in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewLatLng validates a latitude/longitude pair in degrees. Latitude must
// lie in [-90,90] and longitude in [-180,180].
func NewLatLng(lat, lng float64) (LatLng, error) {
	ll := LatLng{Lat: lat, Lng: lng}
	if err := ll.validate(); err != nil {
		return LatLng{}, err
	}
	return ll, nil
}

func (ll LatLng) validate() error {
	if math.IsNaN(ll.Lat) || math.IsInf(ll.Lat, 0) || math.IsNaN(ll.Lng) || math.IsInf(ll.Lng, 0) {
		return fmt.Errorf("latlng: %w: non-finite value (%v, %v)", ErrInvalidCoordinate, ll.Lat, ll.Lng)
	}
	if ll.Lat < -90 || ll.Lat > 90 {
		return fmt.Errorf("latlng: %w: latitude %v out of range", ErrInvalidCoordinate, ll.Lat)
	}
	if ll.Lng < -180 || ll.Lng > 180 {
		return fmt.Errorf("latlng: %w: longitude %v out of range", ErrInvalidCoordinate, ll.Lng)
	}
	return nil
}

func (ll LatLng) String() string { return fmt.Sprintf("(%.6f, %.6f)", ll.Lat, ll.Lng) }

func (ll LatLng) toGeo() geoPoint {
	return geoPoint{lat: ll.Lat * math.Pi / 180, lng: ll.Lng * math.Pi / 180}
}

func (ll LatLng) point() s2.Point { return ll.toGeo().point() }

// geoPoint is the internal radian form of a LatLng.
type geoPoint struct {
	lat, lng float64
}

func (g geoPoint) toLatLng() LatLng {
	return LatLng{Lat: g.lat * 180 / math.Pi, Lng: g.lng * 180 / math.Pi}
}

func (g geoPoint) point() s2.Point {
	return s2.PointFromLatLng(s2.LatLng{Lat: s1.Angle(g.lat), Lng: s1.Angle(g.lng)})
}

// greatCircleRads is the angle between two points.
func greatCircleRads(a, b geoPoint) float64 {
	return a.point().Distance(b.point()).Radians()
}

// posAngleRads folds an angle into [0, 2pi).
func posAngleRads(a float64) float64 {
	t := math.Mod(a, 2*math.Pi)
	if t < 0 {
		t += 2 * math.Pi
	}
	return t
}

// constrainLng folds a longitude into [-pi, pi].
func constrainLng(lng float64) float64 {
	for lng > math.Pi {
		lng -= 2 * math.Pi
	}
	for lng < -math.Pi {
		lng += 2 * math.Pi
	}
	return lng
}

// azimuthRads is the initial bearing from p1 to p2.
func azimuthRads(p1, p2 geoPoint) float64 {
	return math.Atan2(
		math.Cos(p2.lat)*math.Sin(p2.lng-p1.lng),
		math.Cos(p1.lat)*math.Sin(p2.lat)-math.Sin(p1.lat)*math.Cos(p2.lat)*math.Cos(p2.lng-p1.lng),
	)
}

func clamp1(x float64) float64 { return math.Max(-1, math.Min(1, x)) }

// azDistance travels distance radians from p1 along bearing az.
func azDistance(p1 geoPoint, az, distance float64) geoPoint {
	if distance < epsilon {
		return p1
	}
	az = posAngleRads(az)

	// due north or south
	if az < epsilon || math.Abs(az-math.Pi) < epsilon {
		lat := p1.lat - distance
		if az < epsilon {
			lat = p1.lat + distance
		}
		switch {
		case math.Abs(lat-math.Pi/2) < epsilon:
			return geoPoint{lat: math.Pi / 2}
		case math.Abs(lat+math.Pi/2) < epsilon:
			return geoPoint{lat: -math.Pi / 2}
		}
		return geoPoint{lat: lat, lng: constrainLng(p1.lng)}
	}

	sinlat := clamp1(math.Sin(p1.lat)*math.Cos(distance) + math.Cos(p1.lat)*math.Sin(distance)*math.Cos(az))
	lat := math.Asin(sinlat)
	switch {
	case math.Abs(lat-math.Pi/2) < epsilon:
		return geoPoint{lat: math.Pi / 2}
	case math.Abs(lat+math.Pi/2) < epsilon:
		return geoPoint{lat: -math.Pi / 2}
	}
	invcos := 1 / math.Cos(lat)
	sinlng := clamp1(math.Sin(az) * math.Sin(distance) * invcos)
	coslng := clamp1((math.Cos(distance) - math.Sin(p1.lat)*math.Sin(lat)) / math.Cos(p1.lat) * invcos)
	return geoPoint{lat: lat, lng: constrainLng(p1.lng + math.Atan2(sinlng, coslng))}
}

var faceCenterPoint = func() [numFaces]r3.Vector {
	var out [numFaces]r3.Vector
	for f, g := range faceCenterGeo {
		out[f] = g.point().Vector
	}
	return out
}()

// closestFace returns the face whose center is nearest to g, and the
// squared chord distance to it. Ties go to the lower face number.
func closestFace(g geoPoint) (int, float64) {
	v := g.point().Vector
	face, best := 0, 5.0
	for f := 0; f < numFaces; f++ {
		if d := faceCenterPoint[f].Sub(v).Norm2(); d < best {
			face, best = f, d
		}
	}
	return face, best
}
