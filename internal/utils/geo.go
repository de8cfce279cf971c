package utils

import (
	"fmt"
	"math"
)

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

func IsValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

const earthRadiusKM = 6371.0

// DistanceMeters returns the great-circle distance between two points.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlng := (lng2 - lng1) * math.Pi / 180

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlng/2)*math.Sin(dlng/2)
	return 2 * earthRadiusKM * 1000 * math.Asin(math.Sqrt(h))
}

// Locality grid: the world is cut into fixed-size cells (~0.01 degree, about
// 1.1km of latitude). A cell id packs the integer row and column so drivers
// and pickups can be bucketed with a single comparable key.
const cellSizeDeg = 0.01

func LocalityCell(lat, lng float64) int64 {
	row := int64(math.Floor((lat + 90) / cellSizeDeg))
	col := int64(math.Floor((lng + 180) / cellSizeDeg))
	return row*100000 + col
}

// SurroundingCells returns the cell of the point plus the square ring of
// cells around it. ring=1 gives 9 cells, ring=2 gives 25.
func SurroundingCells(lat, lng float64, ring int) []int64 {
	cells := make([]int64, 0, (2*ring+1)*(2*ring+1))
	for dr := -ring; dr <= ring; dr++ {
		for dc := -ring; dc <= ring; dc++ {
			cells = append(cells, LocalityCell(lat+float64(dr)*cellSizeDeg, lng+float64(dc)*cellSizeDeg))
		}
	}
	return cells
}
