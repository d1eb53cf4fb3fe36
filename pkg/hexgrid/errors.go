package hexgrid

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per failure kind. Every error returned by this
// package wraps exactly one of them.
var (
	ErrInvalidFormat           = errors.New("invalid format")
	ErrInvalidCoordinate       = errors.New("invalid coordinate")
	ErrInvalidResolution       = errors.New("invalid resolution")
	ErrInvalidUnit             = errors.New("invalid unit")
	ErrNoSuchRelation          = errors.New("no such relation")
	ErrDegeneratePolygon       = errors.New("degenerate polygon")
	ErrCoverageSearchExhausted = errors.New("coverage search exhausted")
)

// Kind names the failure class of an error.
type Kind string

const (
	KindNone                    Kind = ""
	KindInvalidFormat           Kind = "InvalidFormat"
	KindInvalidCoordinate       Kind = "InvalidCoordinate"
	KindInvalidResolution       Kind = "InvalidResolution"
	KindInvalidUnit             Kind = "InvalidUnit"
	KindNoSuchRelation          Kind = "NoSuchRelation"
	KindDegeneratePolygon       Kind = "DegeneratePolygon"
	KindCoverageSearchExhausted Kind = "CoverageSearchExhausted"
	KindInternal                Kind = "Internal"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidFormat, KindInvalidFormat},
	{ErrInvalidCoordinate, KindInvalidCoordinate},
	{ErrInvalidResolution, KindInvalidResolution},
	{ErrInvalidUnit, KindInvalidUnit},
	{ErrNoSuchRelation, KindNoSuchRelation},
	{ErrDegeneratePolygon, KindDegeneratePolygon},
	{ErrCoverageSearchExhausted, KindCoverageSearchExhausted},
}

// KindOf classifies err. Errors from outside this package are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

func formatError(op string, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", op, ErrInvalidFormat, fmt.Sprintf(format, args...))
}

func resolutionError(op string, res int) error {
	return fmt.Errorf("%s: %w: %d not in [0,%d]", op, ErrInvalidResolution, res, MaxResolution)
}

func relationError(op string, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", op, ErrNoSuchRelation, fmt.Sprintf(format, args...))
}
