package weather

import (
	"sort"
	"time"
)

// Point is one timestamped value of a forecast series.
type Point struct {
	Time  time.Time
	Value float64
}

// Forecast is the normalized hourly/multi-day forecast for one region.
type Forecast struct {
	Location        string
	Temperature     []Point // °C
	RainProbability []Point // percent, 0..100
}

// chronological returns a copy of pts sorted by time ascending.
func chronological(pts []Point) []Point {
	out := make([]Point, len(pts))
	copy(out, pts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}
