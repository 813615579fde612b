package analytics

import (
	"math"
	"sort"
	"time"

	"gift-scanner/internal/domain"
)

// computeFloors picks the 1st/2nd/3rd cheapest active listing prices.
// prices must be pre-sorted ASC.
func computeFloors(prices []float64) (first, second, third *float64) {
	if len(prices) >= 1 {
		v := prices[0]
		first = &v
	}
	if len(prices) >= 2 {
		v := prices[1]
		second = &v
	}
	if len(prices) >= 3 {
		v := prices[2]
		third = &v
	}
	return first, second, third
}

// quantiles holds sale price quantiles over the 7-day window.
type quantiles struct {
	q25, q50, q75, max *float64
}

// computeQuantiles calculates sale price quantiles. Zero sales yield all-nil;
// a single sale collapses every quantile to that price.
func computeQuantiles(sales []domain.SaleRecord) quantiles {
	if len(sales) == 0 {
		return quantiles{}
	}

	prices := make([]float64, len(sales))
	for i, s := range sales {
		prices[i] = s.Price
	}

	if len(prices) == 1 {
		p := prices[0]
		return quantiles{q25: &p, q50: &p, q75: &p, max: &p}
	}

	sort.Float64s(prices)
	q25 := round2(computePercentile(prices, 0.25))
	q50 := round2(computePercentile(prices, 0.50))
	q75 := round2(computePercentile(prices, 0.75))
	max := round2(prices[len(prices)-1])
	return quantiles{q25: &q25, q50: &q50, q75: &q75, max: &max}
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC. p is percentile (0.25 = 25th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeLiquidity scores how actively an asset trades, clamped to [0, 10]:
// sale volume in 7d, active listing depth, recency of the last sale, and a
// 30d context bonus.
func computeLiquidity(sales7d, sales30d, listingsCount int, lastSaleAt *time.Time, now time.Time) float64 {
	score := math.Min(float64(sales7d)*2.0, 10.0)
	score += math.Min(float64(listingsCount)*0.5, 5.0)

	if lastSaleAt != nil {
		hoursSince := now.Sub(*lastSaleAt).Hours()
		if hoursSince < 24 {
			score += 2.0
		} else if hoursSince < 72 {
			score += 1.0
		}
	}

	if sales30d >= 15 {
		score += 1.0
	} else if sales30d >= 8 {
		score += 0.5
	}

	return round1(math.Min(score, 10.0))
}

// computeConfidence classifies data quality. Rules are evaluated strictly
// top-down; the first match wins, so the levels are mutually exclusive.
func computeConfidence(sales7d, sales30d int, liquidity float64, listingsCount int) domain.Confidence {
	if sales7d >= 10 && liquidity >= 7 && listingsCount >= 5 {
		return domain.ConfidenceVeryHigh
	}
	if (sales7d >= 5 || (sales30d >= 15 && sales7d >= 2)) && liquidity >= 5 {
		return domain.ConfidenceHigh
	}
	if (sales7d >= 2 || sales30d >= 8) && liquidity >= 3 {
		return domain.ConfidenceMedium
	}
	return domain.ConfidenceLow
}

// computeTrend fits a linear slope over the 10 most recent sale prices in
// chronological order. sales must be ordered newest-first. Fewer than 3
// sales is always stable.
func computeTrend(sales []domain.SaleRecord, riseThreshold, fallThreshold float64) domain.Trend {
	if len(sales) < 3 {
		return domain.TrendStable
	}

	recent := sales
	if len(recent) > 10 {
		recent = recent[:10]
	}

	// Reverse into oldest-to-newest so a positive slope means rising prices.
	n := len(recent)
	prices := make([]float64, n)
	for i, s := range recent {
		prices[n-1-i] = s.Price
	}

	slope := linearSlope(prices)
	switch {
	case slope > riseThreshold:
		return domain.TrendRising
	case slope < fallThreshold:
		return domain.TrendFalling
	default:
		return domain.TrendStable
	}
}

// linearSlope is the least-squares slope of y over x = 0..n-1.
func linearSlope(y []float64) float64 {
	n := float64(len(y))
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
