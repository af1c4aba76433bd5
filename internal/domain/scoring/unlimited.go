package scoring

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/okian/cragrank/internal/domain/model"
)

const (
	// BoulderPointsPool is shared by all climbers who top a boulder.
	BoulderPointsPool = 1000
	// pointsPlaces is the precision of a boulder value.
	pointsPlaces = 2
	// PointsTolerance treats two totals as equal. It absorbs the rounding of
	// boulder values to pointsPlaces decimals and must follow it.
	PointsTolerance = 0.01
)

// BoulderPoints returns the value of each boulder slot: the full pool when
// nobody topped it, else the pool split between toppers, rounded to 2 decimals.
func BoulderPoints(results []model.Result, layout Layout) []float64 {
	toppers := make([]int64, layout.Len())
	for _, r := range results {
		if !r.Top {
			continue
		}
		if slot, ok := layout.Slot(r.BoulderID); ok {
			toppers[slot]++
		}
	}

	pool := decimal.NewFromInt(BoulderPointsPool)
	points := make([]float64, len(toppers))
	for i, k := range toppers {
		if k == 0 {
			points[i] = BoulderPointsPool
			continue
		}
		points[i] = pool.Div(decimal.NewFromInt(k)).Round(pointsPlaces).InexactFloat64()
	}
	return points
}

func sumPoints(tops []bool, bouldersPoints []float64) float64 {
	sum := decimal.Zero
	for i, top := range tops {
		if top && i < len(bouldersPoints) {
			sum = sum.Add(decimal.NewFromFloat(bouldersPoints[i]))
		}
	}
	return sum.InexactFloat64()
}

// PointsEqual compares two unlimited contest totals.
func PointsEqual(a, b float64) bool {
	return math.Abs(a-b) < PointsTolerance
}

// RankUnlimited orders climbers by descending points. A climber ties the
// previous one when their totals are within PointsTolerance.
func RankUnlimited(aggs map[model.ClimberID]*UnlimitedAggregate) []Placement {
	ids := climberIDs(aggs)
	sort.SliceStable(ids, func(i, j int) bool {
		return aggs[ids[i]].Points > aggs[ids[j]].Points
	})
	return competitionRanks(ids, func(a, b model.ClimberID) bool {
		return PointsEqual(aggs[a].Points, aggs[b].Points)
	})
}
