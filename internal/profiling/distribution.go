// Package profiling summarizes the distribution of a numeric column.
package profiling

import (
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes one numeric column
type Summary struct {
	Count    int     `json:"count"`
	Sum      float64 `json:"sum"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Q25      float64 `json:"q25"`
	Median   float64 `json:"median"`
	Q75      float64 `json:"q75"`
	Max      float64 `json:"max"`
	Skewness float64 `json:"skewness"`
	Outliers int     `json:"outliers"`
}

// Describe computes summary statistics. An empty input yields the zero
// Summary, not an error, so an empty page renders zeros.
func Describe(data []float64) (Summary, error) {
	s := Summary{Count: len(data)}
	if len(data) == 0 {
		return s, nil
	}
	s.Sum = floats.Sum(data)

	var err error
	if s.Mean, err = stats.Mean(data); err != nil {
		return s, err
	}
	if s.Min, err = stats.Min(data); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(data); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, err
	}
	// sample deviation is undefined for a single point
	if len(data) == 1 {
		s.Q25, s.Q75 = data[0], data[0]
		return s, nil
	}
	if s.StdDev, err = stats.StandardDeviationSample(data); err != nil {
		return s, err
	}
	if s.Q25, err = stats.PercentileNearestRank(data, 25); err != nil {
		return s, err
	}
	if s.Q75, err = stats.PercentileNearestRank(data, 75); err != nil {
		return s, err
	}
	if len(data) >= 3 && s.StdDev > 0 {
		s.Skewness = stat.Skew(data, nil)
	}
	s.Outliers = detectOutliers(data, s.Q25, s.Q75)
	return s, nil
}

// detectOutliers identifies outliers using IQR method
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}

	return outlierCount
}
