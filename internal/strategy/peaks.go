package strategy

import "sort"

// findPeaks locates local maxima the way scipy.signal.find_peaks does with
// its distance and width conditions: plateau-aware local maxima, thinned so
// no two survivors sit closer than minDistance samples (higher peaks win),
// then filtered by width measured at half prominence.
// Returned indices are ascending.
func findPeaks(series []float64, minDistance int, minWidth float64) []int {
	candidates := localMaxima(series)
	if len(candidates) == 0 {
		return nil
	}
	if minDistance > 1 {
		candidates = enforceDistance(series, candidates, minDistance)
	}
	if minWidth > 0 {
		kept := candidates[:0]
		for _, idx := range candidates {
			if peakWidth(series, idx) >= minWidth {
				kept = append(kept, idx)
			}
		}
		candidates = kept
	}
	sort.Ints(candidates)
	return candidates
}

// localMaxima returns one index per strict local maximum; flat tops resolve
// to the plateau midpoint.
func localMaxima(series []float64) []int {
	var out []int
	n := len(series)
	i := 1
	for i < n-1 {
		if series[i] <= series[i-1] {
			i++
			continue
		}
		// climbed; find the end of any plateau
		j := i
		for j+1 < n && series[j+1] == series[i] {
			j++
		}
		if j+1 < n && series[j+1] < series[i] {
			out = append(out, (i+j)/2)
		}
		i = j + 1
	}
	return out
}

func enforceDistance(series []float64, peaks []int, minDistance int) []int {
	order := append([]int(nil), peaks...)
	sort.Slice(order, func(a, b int) bool { return series[order[a]] > series[order[b]] })
	removed := make(map[int]bool, len(peaks))
	for _, idx := range order {
		if removed[idx] {
			continue
		}
		for _, other := range peaks {
			if other == idx || removed[other] {
				continue
			}
			if abs(other-idx) < minDistance {
				removed[other] = true
			}
		}
	}
	out := peaks[:0]
	for _, idx := range peaks {
		if !removed[idx] {
			out = append(out, idx)
		}
	}
	return out
}

// prominence is the peak height above the higher of its two base levels,
// where each base is the minimum between the peak and the nearest sample
// that exceeds it (or the series edge).
func prominence(series []float64, idx int) float64 {
	peakVal := series[idx]

	leftBase := peakVal
	for i := idx - 1; i >= 0; i-- {
		if series[i] > peakVal {
			break
		}
		if series[i] < leftBase {
			leftBase = series[i]
		}
	}
	rightBase := peakVal
	for i := idx + 1; i < len(series); i++ {
		if series[i] > peakVal {
			break
		}
		if series[i] < rightBase {
			rightBase = series[i]
		}
	}
	base := leftBase
	if rightBase > base {
		base = rightBase
	}
	return peakVal - base
}

// peakWidth measures the peak's width in samples at half its prominence,
// interpolating fractionally between samples at the crossings.
func peakWidth(series []float64, idx int) float64 {
	height := series[idx] - prominence(series, idx)*0.5

	left := float64(idx)
	for i := idx - 1; i >= 0; i-- {
		if series[i] < height {
			left = float64(i) + (height-series[i])/(series[i+1]-series[i])
			break
		}
		left = float64(i)
	}
	right := float64(idx)
	for i := idx + 1; i < len(series); i++ {
		if series[i] < height {
			right = float64(i) - (height-series[i])/(series[i-1]-series[i])
			break
		}
		right = float64(i)
	}
	return right - left
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
