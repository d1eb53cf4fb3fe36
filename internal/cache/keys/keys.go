// Package keys builds deterministic cache keys for polygon coverages.
package keys

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
)

const version = "v1"

// coordinate precision used when hashing rings, about 1cm at the equator
const precision = 7

// CoverageKey returns "cov:v1:<res>:<mode>:<hash>". The hash covers the ring
// with its closing vertex dropped and the starting vertex rotated to the
// smallest one, so the same outline keys the same regardless of where it
// starts or whether it is closed.
func CoverageKey(res int, mode string, ring []hexgrid.LatLng) string {
	return fmt.Sprintf("cov:%s:%d:%s:%016x", version, res, sanitize(strings.ToLower(strings.TrimSpace(mode))), RingHash(ring))
}

// Prefix matches every coverage key for res and mode.
func Prefix(res int, mode string) string {
	return fmt.Sprintf("cov:%s:%d:%s:", version, res, sanitize(strings.ToLower(strings.TrimSpace(mode))))
}

func RingHash(ring []hexgrid.LatLng) uint64 {
	pts := canonical(ring)
	d := xxhash.New()
	var buf []byte
	for _, p := range pts {
		buf = buf[:0]
		buf = strconv.AppendFloat(buf, p.Lat, 'f', precision, 64)
		buf = append(buf, ',')
		buf = strconv.AppendFloat(buf, p.Lng, 'f', precision, 64)
		buf = append(buf, ';')
		_, _ = d.Write(buf)
	}
	return d.Sum64()
}

func canonical(ring []hexgrid.LatLng) []hexgrid.LatLng {
	pts := make([]hexgrid.LatLng, 0, len(ring))
	for _, p := range ring {
		pts = append(pts, hexgrid.LatLng{Lat: round(p.Lat), Lng: round(normLng(p.Lng))})
	}
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if len(pts) == 0 {
		return pts
	}
	start := 0
	for i := 1; i < len(pts); i++ {
		if less(pts[i], pts[start]) {
			start = i
		}
	}
	return append(pts[start:], pts[:start]...)
}

func less(a, b hexgrid.LatLng) bool {
	if a.Lat != b.Lat {
		return a.Lat < b.Lat
	}
	return a.Lng < b.Lng
}

func round(x float64) float64 {
	const scale = 1e7
	r := math.Round(x*scale) / scale
	if r == 0 {
		return 0
	}
	return r
}

func normLng(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng <= -180 {
		lng += 360
	}
	return lng
}

// sanitize keeps [A-Za-z0-9:_-] and folds other runs into a single '-'.
func sanitize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == ':' || r == '_' || r == '-':
			out = r
		default:
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		unicode.IsDigit(r)
}
