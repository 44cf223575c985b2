package weather

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ykvlv/weather-digest-bot/internal/observability"
)

type fakeForecasts struct {
	fc  Forecast
	err error
}

func (f *fakeForecasts) Forecast(_ context.Context, region string) (Forecast, error) {
	if f.err != nil {
		return Forecast{}, f.err
	}
	fc := f.fc
	fc.Location = region
	return fc, nil
}

type fakeObservations struct {
	index   float64
	err     error
	station string
}

func (f *fakeObservations) UVIndex(_ context.Context, stationID string) (float64, error) {
	f.station = stationID
	return f.index, f.err
}

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func hourly(start time.Time, values ...float64) []Point {
	out := make([]Point, len(values))
	for i, v := range values {
		out[i] = Point{Time: start.Add(time.Duration(i) * time.Hour), Value: v}
	}
	return out
}

func newTestGateway(fc *fakeForecasts, obs *fakeObservations) (*Gateway, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return NewGateway(fc, obs, clockwork.NewFakeClockAt(testNow), zap.NewNop(), m), m
}

func TestSummary_RainAheadAndUV(t *testing.T) {
	fc := &fakeForecasts{fc: Forecast{
		Temperature:     hourly(testNow.Add(-time.Hour), 24, 25, 28, 31, 30),
		RainProbability: hourly(testNow, 10, 20, 30, 60, 80),
	}}
	obs := &fakeObservations{index: 6}
	g, _ := newTestGateway(fc, obs)

	got := g.Summary(context.Background(), "臺北市", true, true)

	lines := strings.Split(got, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Current temperature: 25°C. 3 hours until high rain probability", lines[0])
	assert.Equal(t, "臺北市 high/low: 31°C / 24°C.", lines[1])
	assert.Equal(t, "Current UV index: 6 (high)", lines[2])
	assert.Equal(t, "Advice: "+UVHigh.Advice(), lines[3])
	assert.Equal(t, "466910", obs.station)
}

func TestSummary_NoRainRisk(t *testing.T) {
	fc := &fakeForecasts{fc: Forecast{
		Temperature:     hourly(testNow, 20, 22),
		RainProbability: hourly(testNow, 90, 50, 40, 10),
	}}
	g, _ := newTestGateway(fc, &fakeObservations{})

	got := g.Summary(context.Background(), "臺中市", true, false)
	// The 90% point is at now, not after it; exactly 50% does not exceed the threshold.
	assert.Equal(t, "Current temperature: 20°C. "+MsgNoRainRisk+"\n臺中市 high/low: 22°C / 20°C.", got)
}

func TestSummary_RainDisabledOmitsRainSection(t *testing.T) {
	fc := &fakeForecasts{fc: Forecast{
		Temperature:     hourly(testNow, 20),
		RainProbability: hourly(testNow.Add(time.Hour), 99),
	}}
	g, _ := newTestGateway(fc, &fakeObservations{})

	got := g.Summary(context.Background(), "臺中市", false, false)
	assert.Equal(t, "Current temperature: 20°C.\n臺中市 high/low: 20°C / 20°C.", got)
}

func TestSummary_ForecastFailure(t *testing.T) {
	g, m := newTestGateway(&fakeForecasts{err: errors.New("boom")}, &fakeObservations{})

	got := g.Summary(context.Background(), "臺北市", true, true)
	assert.Equal(t, MsgForecastUnavailable, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamErrors.WithLabelValues("forecast")))
}

func TestSummary_EmptyTemperatureSeries(t *testing.T) {
	g, _ := newTestGateway(&fakeForecasts{}, &fakeObservations{})
	assert.Equal(t, MsgForecastUnavailable, g.Summary(context.Background(), "臺北市", true, true))
}

func TestSummary_CurrentTemperatureUnavailable(t *testing.T) {
	fc := &fakeForecasts{fc: Forecast{
		Temperature: hourly(testNow.Add(-3*time.Hour), 18, 19, 21),
	}}
	g, _ := newTestGateway(fc, &fakeObservations{})

	got := g.Summary(context.Background(), "臺北市", false, false)
	assert.Equal(t, "Current temperature: unavailable.\n臺北市 high/low: 21°C / 18°C.", got)
}

func TestSummary_UnmappedStationOmitsUV(t *testing.T) {
	fc := &fakeForecasts{fc: Forecast{Temperature: hourly(testNow, 20)}}
	obs := &fakeObservations{index: 9}
	g, _ := newTestGateway(fc, obs)

	got := g.Summary(context.Background(), "Atlantis", false, true)
	assert.NotContains(t, got, "UV")
	assert.Empty(t, obs.station)
}

func TestSummary_ObservationFailure(t *testing.T) {
	fc := &fakeForecasts{fc: Forecast{Temperature: hourly(testNow, 20)}}
	g, m := newTestGateway(fc, &fakeObservations{err: errors.New("timeout")})

	got := g.Summary(context.Background(), "高雄市", false, true)
	assert.True(t, strings.HasSuffix(got, "\n"+MsgUVUnavailable), got)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamErrors.WithLabelValues("observation")))
}

func TestSummary_UnsortedSeries(t *testing.T) {
	fc := &fakeForecasts{fc: Forecast{
		Temperature: []Point{
			{Time: testNow.Add(2 * time.Hour), Value: 30},
			{Time: testNow.Add(time.Hour), Value: 27},
			{Time: testNow.Add(-time.Hour), Value: 22},
		},
		RainProbability: []Point{
			{Time: testNow.Add(5 * time.Hour), Value: 70},
			{Time: testNow.Add(2*time.Hour + 30*time.Minute), Value: 55},
		},
	}}
	g, _ := newTestGateway(fc, &fakeObservations{})

	got := g.Summary(context.Background(), "臺南市", true, false)
	assert.Equal(t, "Current temperature: 27°C. 2 hours until high rain probability\n臺南市 high/low: 30°C / 22°C.", got)
}

func TestClassifyUV(t *testing.T) {
	cases := []struct {
		index float64
		want  UVLevel
	}{
		{0, UVLow},
		{2, UVLow},
		{2.5, UVModerate},
		{3, UVModerate},
		{5, UVModerate},
		{6, UVHigh},
		{7, UVHigh},
		{7.5, UVVeryHigh},
		{10, UVVeryHigh},
		{11, UVExtreme},
		{14.2, UVExtreme},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyUV(c.index), "index %v", c.index)
	}
}

func TestUVMessage(t *testing.T) {
	assert.Equal(t, "Current UV index: 11 (extreme)\nAdvice: "+UVExtreme.Advice(), UVMessage(11))
	assert.Equal(t, "Current UV index: 2.5 (moderate)\nAdvice: "+UVModerate.Advice(), UVMessage(2.5))
}

func TestHoursUntilRain_Floors(t *testing.T) {
	pts := []Point{{Time: testNow.Add(90 * time.Minute), Value: 51}}
	h, ok := HoursUntilRain(pts, testNow)
	require.True(t, ok)
	assert.Equal(t, 1, h)
}
