package features

import (
	"math"
	"time"
)

// pctChange computes x_t/x_{t-period} - 1 with NaN for the warm-up prefix.
// Output has the same length as the input.
func pctChange(xs []float64, period int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if i < period || xs[i-period] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = xs[i]/xs[i-period] - 1
	}
	return out
}

// rollingMean computes a rolling mean over the window. A position is NaN
// until the window is fully populated with non-NaN values.
func rollingMean(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		valid := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				valid = false
				break
			}
			sum += xs[j]
		}
		if !valid {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(window)
	}
	return out
}

// rollingStd computes a rolling sample standard deviation (n-1 denominator)
// with the same NaN warm-up semantics as rollingMean.
func rollingStd(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		valid := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				valid = false
				break
			}
			sum += xs[j]
		}
		if !valid {
			out[i] = math.NaN()
			continue
		}
		mean := sum / float64(window)
		ss := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := xs[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

// searchSorted returns the index of the first element in the ascending
// slice that is not before t.
func searchSorted(ts []time.Time, t time.Time) int {
	lo, hi := 0, len(ts)
	for lo < hi {
		mid := (lo + hi) / 2
		if ts[mid].Before(t) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
