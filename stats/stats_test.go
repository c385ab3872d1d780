package stats

import (
	"log/slog"
	"math"
	"testing"
)

func TestMeanVar(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		mean     float64
		variance float64
	}{
		{"empty", nil, 0, 0},
		{"single", []float64{3}, 3, 0},
		{"symmetric", []float64{-1, 1}, 0, 1},
		{"population", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 5, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, v := MeanVar(tt.values)
			if math.Abs(m-tt.mean) > 1e-12 || math.Abs(v-tt.variance) > 1e-12 {
				t.Errorf("MeanVar(%v) = (%v, %v), want (%v, %v)", tt.values, m, v, tt.mean, tt.variance)
			}
		})
	}
}

func TestMedianQuantiles(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	q25, q50, q75 := MedianQuantiles(sorted)
	if q25 != 3 || q50 != 5 || q75 != 7 {
		t.Errorf("quantiles = (%v, %v, %v), want (3, 5, 7)", q25, q50, q75)
	}

	if a, b, c := MedianQuantiles(nil); a != 0 || b != 0 || c != 0 {
		t.Errorf("empty quantiles should be zero")
	}
	if a, b, c := MedianQuantiles([]float64{9}); a != 9 || b != 9 || c != 9 {
		t.Errorf("single sample quantiles = (%v, %v, %v)", a, b, c)
	}
}

func TestEstimate(t *testing.T) {
	e := FromSlice([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if e.Mean != 5 || e.StdDev != 2 {
		t.Errorf("FromSlice = %+v, want {5 2}", e)
	}
	if got := e.String(); got != "5 ± 2" {
		t.Errorf("String() = %q", got)
	}

	// 相同样本可能因舍入得到极小的负方差.
	same := FromSlice([]float64{0.1, 0.1, 0.1})
	if math.IsNaN(same.StdDev) || same.StdDev < 0 {
		t.Errorf("stddev of identical samples = %v", same.StdDev)
	}

	if v := e.LogValue(); v.Kind() != slog.KindGroup || len(v.Group()) != 2 {
		t.Errorf("LogValue should be a two-field group, got %v", v)
	}

	mean, stddev := e.Decimal()
	if mean.String() != "5" || stddev.String() != "2" {
		t.Errorf("Decimal() = (%s, %s)", mean, stddev)
	}

	if zero := FromSlice(nil); zero != (Estimate{}) {
		t.Errorf("empty estimate = %+v", zero)
	}
}
