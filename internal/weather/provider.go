package weather

import "context"

// ForecastProvider returns the forecast series for a region name.
type ForecastProvider interface {
	Forecast(ctx context.Context, region string) (Forecast, error)
}

// ObservationProvider returns the current UV index measured at a station.
type ObservationProvider interface {
	UVIndex(ctx context.Context, stationID string) (float64, error)
}
