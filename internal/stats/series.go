package stats

import "gonum.org/v1/gonum/stat"

// MeanSeries averages score histories column-wise. Histories may be ragged;
// each point averages only the trials that reached that iteration.
func MeanSeries(histories [][]int) []float64 {
	var points []float64
	for depth := 0; ; depth++ {
		values := make([]float64, 0, len(histories))
		for _, history := range histories {
			if depth < len(history) {
				values = append(values, float64(history[depth]))
			}
		}
		if len(values) == 0 {
			break
		}
		points = append(points, stat.Mean(values, nil))
	}
	return points
}

// BestSeries keeps the lowest score seen per iteration across trials.
func BestSeries(histories [][]int) []int {
	var points []int
	for depth := 0; ; depth++ {
		best := 0
		found := false
		for _, history := range histories {
			if depth >= len(history) {
				continue
			}
			if !found || history[depth] < best {
				best = history[depth]
				found = true
			}
		}
		if !found {
			break
		}
		points = append(points, best)
	}
	return points
}
