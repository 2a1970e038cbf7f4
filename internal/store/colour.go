package store

import (
	"fmt"
	"math"
)

// Pace ramp normalization range in minutes per kilometre. Paces at or
// below paceMin render as the fastest colour, at or above paceMax as
// the slowest.
const (
	paceMin = 2.5
	paceMax = 4.5
)

// viridisStops are evenly spaced anchor colours of the viridis
// colormap, interpolated linearly between stops.
var viridisStops = [][3]uint8{
	{0x44, 0x01, 0x54},
	{0x3b, 0x52, 0x8b},
	{0x21, 0x91, 0x8c},
	{0x5e, 0xc9, 0x62},
	{0xfd, 0xe7, 0x25},
}

// paceColour maps a pace to a hex colour on a reversed viridis ramp,
// fast paces bright and slow paces dark. NaN gets black.
func paceColour(pace float64) string {
	if math.IsNaN(pace) {
		return "#000000"
	}
	t := (pace - paceMin) / (paceMax - paceMin)
	t = math.Min(1, math.Max(0, t))
	r, g, b := sampleViridis(1 - t)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func sampleViridis(t float64) (uint8, uint8, uint8) {
	segments := float64(len(viridisStops) - 1)
	pos := t * segments
	lo := int(math.Floor(pos))
	if lo >= len(viridisStops)-1 {
		c := viridisStops[len(viridisStops)-1]
		return c[0], c[1], c[2]
	}
	frac := pos - float64(lo)
	a, b := viridisStops[lo], viridisStops[lo+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*frac))
	}
	return lerp(a[0], b[0]), lerp(a[1], b[1]), lerp(a[2], b[2])
}
