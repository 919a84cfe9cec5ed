package trend

import (
	"math"
	"testing"
)

func TestClassify(t *testing.T) {
	opts := DefaultOptions()

	cases := []struct {
		name   string
		values []float64
		want   Direction
	}{
		{"flat", []float64{50, 50, 50, 50}, DirectionStable},
		{"rising", []float64{10, 10, 90, 90}, DirectionUp},
		{"falling", []float64{90, 90, 10, 10}, DirectionDown},
		{"small wiggle", []float64{50, 51, 49, 50}, DirectionStable},
		{"odd length excludes middle", []float64{10, 10, 50, 90, 90}, DirectionUp},
		{"empty", nil, DirectionStable},
		{"single", []float64{42}, DirectionStable},
		{"two rising", []float64{10, 90}, DirectionUp},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.values, opts); got != tc.want {
				t.Errorf("Classify(%v) = %s, want %s", tc.values, got, tc.want)
			}
		})
	}
}

func TestClassifyZeroBaselineUsesAbsoluteThreshold(t *testing.T) {
	opts := DefaultOptions()

	// First half mean is zero: relative thresholding would classify any
	// movement as a trend, so the absolute threshold applies.
	if got := Classify([]float64{0, 0, 0.4, 0.4}, opts); got != DirectionStable {
		t.Errorf("Classify(tiny rise from zero) = %s, want stable", got)
	}
	if got := Classify([]float64{0, 0, 5, 5}, opts); got != DirectionUp {
		t.Errorf("Classify(clear rise from zero) = %s, want up", got)
	}
}

func TestClassifyCustomThresholds(t *testing.T) {
	strict := Options{RelativeThreshold: 0.5, AbsoluteThreshold: 10}

	if got := Classify([]float64{50, 50, 60, 60}, strict); got != DirectionStable {
		t.Errorf("Classify() with 50%% threshold = %s, want stable", got)
	}
	if got := Classify([]float64{50, 50, 60, 60}, Options{RelativeThreshold: 0.05, AbsoluteThreshold: 1}); got != DirectionUp {
		t.Errorf("Classify() with 5%% threshold = %s, want up", got)
	}
}

func TestForecastRequiresThreePoints(t *testing.T) {
	if got := Forecast([]float64{10, 20}, 3); len(got) != 0 {
		t.Errorf("Forecast() with 2 points = %v, want empty", got)
	}
	if got := Forecast(nil, 3); len(got) != 0 {
		t.Errorf("Forecast() with no points = %v, want empty", got)
	}
	if got := Forecast([]float64{10, 20, 30}, 0); len(got) != 0 {
		t.Errorf("Forecast() with 0 periods = %v, want empty", got)
	}
}

func TestForecastLinearSeries(t *testing.T) {
	// Perfectly linear input: extrapolation continues the line exactly.
	got := Forecast([]float64{0, 10, 20, 30}, 2)
	want := []float64{40, 50}

	if len(got) != len(want) {
		t.Fatalf("Forecast() = %v, want %v", got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("Forecast()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestForecastConstantSeries(t *testing.T) {
	got := Forecast([]float64{55, 55, 55, 55, 55}, 3)
	for i, v := range got {
		if math.Abs(v-55) > 1e-9 {
			t.Errorf("Forecast()[%d] = %v, want 55", i, v)
		}
	}
}

func TestForecastClampsToPercentRange(t *testing.T) {
	// Steep upward slope: extrapolated values would exceed 100.
	high := Forecast([]float64{60, 80, 100}, 3)
	for i, v := range high {
		if v > 100 {
			t.Errorf("Forecast()[%d] = %v, want clamped to 100", i, v)
		}
	}

	// Steep downward slope: extrapolated values would go negative.
	low := Forecast([]float64{40, 20, 0}, 3)
	for i, v := range low {
		if v < 0 {
			t.Errorf("Forecast()[%d] = %v, want clamped to 0", i, v)
		}
	}
}

func TestFitLine(t *testing.T) {
	slope, intercept := fitLine([]float64{5, 7, 9, 11})
	if math.Abs(slope-2) > 1e-9 {
		t.Errorf("slope = %v, want 2", slope)
	}
	if math.Abs(intercept-5) > 1e-9 {
		t.Errorf("intercept = %v, want 5", intercept)
	}
}

func TestMean(t *testing.T) {
	if got := mean([]float64{2, 4, 6}); got != 4 {
		t.Errorf("mean() = %v, want 4", got)
	}
	if got := mean(nil); got != 0 {
		t.Errorf("mean(nil) = %v, want 0", got)
	}
}
