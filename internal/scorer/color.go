package scorer

import (
	"fmt"
	"math"
	"strconv"
)

// Display color constants for the priority gradient.
const (
	colorSaturation = 90
	colorLightness  = 60
	colorScale      = 1.5
	maxHue          = 120.0
)

// Color maps a priority score to an HSL color string running from green
// (hue 120, score 0) to red (hue 0, score >= 2/3). Hue is rounded to two
// decimals.
func Color(priority float64) string {
	if math.IsNaN(priority) || priority < 0 {
		priority = 0
	}
	hue := maxHue * (1 - math.Min(priority*colorScale, 1))
	hue = math.Round(hue*100) / 100
	return fmt.Sprintf("hsl(%s, %d%%, %d%%)", strconv.FormatFloat(hue, 'f', -1, 64), colorSaturation, colorLightness)
}
