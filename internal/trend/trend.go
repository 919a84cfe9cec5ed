// Package trend classifies the direction of a metric window and extrapolates
// a short-horizon forecast from it.
package trend

import "math"

// Direction is the coarse movement of a metric over a window.
type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionStable Direction = "stable"
)

// Options holds the stability thresholds. The defaults are smoothing
// heuristics, not statistically derived, so they are kept configurable.
type Options struct {
	// RelativeThreshold: the halves must differ by more than this fraction
	// of the first-half mean to count as movement.
	RelativeThreshold float64
	// AbsoluteThreshold applies instead when the first-half mean is zero,
	// where a relative comparison would degenerate.
	AbsoluteThreshold float64
}

// DefaultOptions returns a 5% relative threshold with a 1.0 unit absolute
// fallback.
func DefaultOptions() Options {
	return Options{
		RelativeThreshold: 0.05,
		AbsoluteThreshold: 1.0,
	}
}

// Classify splits the window into first and second halves (the middle
// element of an odd-length window belongs to neither) and compares their
// means. Windows shorter than two points are stable by definition.
func Classify(values []float64, opts Options) Direction {
	n := len(values)
	if n < 2 {
		return DirectionStable
	}

	half := n / 2
	firstMean := mean(values[:half])
	secondMean := mean(values[n-half:])

	diff := secondMean - firstMean

	threshold := opts.AbsoluteThreshold
	if firstMean != 0 {
		threshold = opts.RelativeThreshold * math.Abs(firstMean)
	}

	if math.Abs(diff) < threshold {
		return DirectionStable
	}
	if diff > 0 {
		return DirectionUp
	}
	return DirectionDown
}

// Forecast fits an ordinary least-squares line through the window (index
// against value) and extrapolates periods steps past the end. Each value is
// clamped to [0,100] since the inputs are percentages. Fewer than three
// points is a benign cold-start state and yields an empty forecast.
func Forecast(values []float64, periods int) []float64 {
	n := len(values)
	if n < 3 || periods <= 0 {
		return nil
	}

	slope, intercept := fitLine(values)

	out := make([]float64, periods)
	for i := 0; i < periods; i++ {
		x := float64(n + i)
		v := slope*x + intercept
		if v < 0 {
			v = 0
		} else if v > 100 {
			v = 100
		}
		out[i] = v
	}
	return out
}

// fitLine returns the OLS slope and intercept of values against their
// indices 0..n-1.
func fitLine(values []float64) (slope, intercept float64) {
	n := float64(len(values))

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}

	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
