package pointcloud

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the depth of a cloud. Depth statistics only cover valid records and are zero
// when there are none.
type Summary struct {
	Valid     int
	Invalid   int
	MeanDepth float64
	StdDepth  float64
	MinDepth  float64
	MaxDepth  float64
}

// Summarize computes a Summary of the records.
func Summarize(records []Record) Summary {
	depths := make([]float64, 0, len(records))
	for _, rec := range records {
		if rec.Valid {
			depths = append(depths, rec.Point.Z)
		}
	}
	s := Summary{Valid: len(depths), Invalid: len(records) - len(depths)}
	if len(depths) == 0 {
		return s
	}
	s.MeanDepth, s.StdDepth = stat.MeanStdDev(depths, nil)
	if len(depths) == 1 {
		s.StdDepth = 0
	}
	s.MinDepth = floats.Min(depths)
	s.MaxDepth = floats.Max(depths)
	return s
}
