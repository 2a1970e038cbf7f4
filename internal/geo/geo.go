// Package geo defines the geographic value types used by the crawler:
// coordinate points, axis-aligned bounds, and the quadrant subdivision
// that drives recursive exploration.
package geo

import (
	"fmt"
	"strconv"
	"strings"
)

// LatLng is a decimal latitude/longitude coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bound is an axis-aligned rectangle described by its south-west and
// north-east corners. Bounds are plain values; two bounds describe the
// same region when their quantized keys match.
type Bound struct {
	SW LatLng `json:"sw"`
	NE LatLng `json:"ne"`
}

// keyPrecision is the number of decimal places used when quantizing a
// coordinate for region identity. Six places is roughly 0.1m at the
// equator, far below any subdivision step the crawler produces, so two
// bounds that differ only by serialization drift collapse to one key.
const keyPrecision = 6

// Key returns a fixed-precision string identity for the bound. Region
// lookups match on this key rather than raw float equality.
func (b Bound) Key() string {
	coords := []float64{b.SW.Lat, b.SW.Lng, b.NE.Lat, b.NE.Lng}
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.FormatFloat(c, 'f', keyPrecision, 64)
	}
	return strings.Join(parts, ",")
}

// Mid returns the midpoint of the bound.
func (b Bound) Mid() LatLng {
	return LatLng{
		Lat: (b.SW.Lat + b.NE.Lat) / 2,
		Lng: (b.SW.Lng + b.NE.Lng) / 2,
	}
}

// Split bisects both axes at the midpoint and returns the four quadrants
// in bottom-left, top-left, top-right, bottom-right order. Traversal
// order is fixed only so crawls are deterministic.
func (b Bound) Split() [4]Bound {
	mid := b.Mid()
	return [4]Bound{
		{SW: b.SW, NE: mid},
		{SW: LatLng{Lat: b.SW.Lat, Lng: mid.Lng}, NE: LatLng{Lat: mid.Lat, Lng: b.NE.Lng}},
		{SW: mid, NE: b.NE},
		{SW: LatLng{Lat: mid.Lat, Lng: b.SW.Lng}, NE: LatLng{Lat: b.NE.Lat, Lng: mid.Lng}},
	}
}

// Offset returns a copy of the bound with the same delta added to every
// coordinate. Used by trigger surfaces that accept a uniform shift.
func (b Bound) Offset(delta float64) Bound {
	return Bound{
		SW: LatLng{Lat: b.SW.Lat + delta, Lng: b.SW.Lng + delta},
		NE: LatLng{Lat: b.NE.Lat + delta, Lng: b.NE.Lng + delta},
	}
}

// Validate rejects degenerate bounds where the corners are not in
// south-west / north-east order.
func (b Bound) Validate() error {
	if b.SW.Lat >= b.NE.Lat || b.SW.Lng >= b.NE.Lng {
		return fmt.Errorf("bound corners out of order: sw=%v ne=%v", b.SW, b.NE)
	}
	return nil
}

func (b Bound) String() string {
	return fmt.Sprintf("[(%g,%g),(%g,%g)]", b.SW.Lat, b.SW.Lng, b.NE.Lat, b.NE.Lng)
}
