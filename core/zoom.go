package core

import (
	"fmt"
	"math"

	"pkt.systems/nexus/schema"
)

// nextZoom applies delta and rounds to the nearest 0.1, inside [min, max].
func nextZoom(current, delta, min, max float64) float64 {
	factor := math.Round((current+delta)*10) / 10
	if factor < min {
		factor = min
	}
	if factor > max {
		factor = max
	}
	return factor
}

func zoomIndicator(factor float64) schema.ZoomIndicator {
	if factor == 1.0 {
		return schema.ZoomIndicator{}
	}
	return schema.ZoomIndicator{
		Visible: true,
		Label:   fmt.Sprintf("%.0f%%", factor*100),
	}
}
