// Package jobs defines coverage job events consumed from Kafka.
package jobs

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mohammed-shakir/hexgrid/internal/core/model"
	"github.com/mohammed-shakir/hexgrid/internal/coverage"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid"
	"github.com/mohammed-shakir/hexgrid/pkg/hexgrid/tiler"
)

const (
	OpWarm  = "warm"
	OpEvict = "evict"
)

// Event asks the service to precompute (warm) or drop (evict) one coverage.
// Ring vertices are [lat, lng] pairs.
type Event struct {
	Version int          `json:"version"`
	ID      string       `json:"id"`
	Op      string       `json:"op"`
	Res     int          `json:"res"`
	Mode    string       `json:"mode,omitempty"`
	Ring    [][2]float64 `json:"ring,omitempty"`
	BBox    *model.BBox  `json:"bbox,omitempty"`
	TS      time.Time    `json:"ts"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return errors.New("version must be 1")
	}
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("id is required")
	}
	switch e.Op {
	case OpWarm, OpEvict:
	default:
		return errors.New("op must be warm|evict")
	}
	if e.Res < 0 || e.Res > hexgrid.MaxResolution {
		return fmt.Errorf("res %d out of range", e.Res)
	}
	if _, err := e.mode(); err != nil {
		return err
	}
	if e.TS.IsZero() {
		return errors.New("ts is required")
	}
	hasRing := len(e.Ring) > 0
	hasBBox := e.BBox != nil
	if hasRing == hasBBox {
		return errors.New("exactly one of ring or bbox is required")
	}
	if hasBBox {
		return e.BBox.Validate()
	}
	if len(e.Ring) < 3 {
		return fmt.Errorf("ring has %d vertices, need 3", len(e.Ring))
	}
	for i, v := range e.Ring {
		if _, err := hexgrid.NewLatLng(v[0], v[1]); err != nil {
			return fmt.Errorf("ring vertex %d: %w", i, err)
		}
	}
	return nil
}

func (e Event) mode() (tiler.Mode, error) {
	if e.Mode == "" {
		return tiler.CenterInside, nil
	}
	return tiler.ParseMode(e.Mode)
}

// Request converts a validated event into a coverage request.
func (e Event) Request() (coverage.Request, error) {
	m, err := e.mode()
	if err != nil {
		return coverage.Request{}, err
	}
	var ring []hexgrid.LatLng
	if e.BBox != nil {
		ring = e.BBox.Ring()
	} else {
		ring = make([]hexgrid.LatLng, len(e.Ring))
		for i, v := range e.Ring {
			ring[i] = hexgrid.LatLng{Lat: v[0], Lng: v[1]}
		}
	}
	return coverage.Request{Ring: ring, Res: e.Res, Mode: m}, nil
}
