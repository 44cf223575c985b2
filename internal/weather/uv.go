package weather

import (
	"fmt"
	"strconv"
)

// UVLevel is the exposure band a UV index falls into.
type UVLevel string

const (
	UVLow      UVLevel = "low"
	UVModerate UVLevel = "moderate"
	UVHigh     UVLevel = "high"
	UVVeryHigh UVLevel = "very high"
	UVExtreme  UVLevel = "extreme"
)

var uvAdvice = map[UVLevel]string{
	UVLow:      "UV is weak. Outdoor activity is fine, but light sun care is still a good idea.",
	UVModerate: "UV is moderate. Wear a hat and sunglasses and apply sunscreen.",
	UVHigh:     "UV is high. Avoid prolonged exposure and use an umbrella or seek shade.",
	UVVeryHigh: "UV is very strong. Minimize time outdoors and take full sun protection.",
	UVExtreme:  "UV is extreme. Avoid any direct exposure and stay indoors or fully protected.",
}

// ClassifyUV maps an index to its band. Upper bounds are inclusive
// (2, 5, 7, 10); anything above 10 is extreme.
func ClassifyUV(index float64) UVLevel {
	switch {
	case index <= 2:
		return UVLow
	case index <= 5:
		return UVModerate
	case index <= 7:
		return UVHigh
	case index <= 10:
		return UVVeryHigh
	default:
		return UVExtreme
	}
}

// Advice returns the canned recommendation for the level.
func (l UVLevel) Advice() string {
	return uvAdvice[l]
}

// UVMessage renders the UV block of the digest.
func UVMessage(index float64) string {
	level := ClassifyUV(index)
	return fmt.Sprintf("Current UV index: %s (%s)\nAdvice: %s", formatNumber(index), level, level.Advice())
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
