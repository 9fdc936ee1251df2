package aggregate

import (
	"math"
	"strconv"
	"strings"

	"github.com/feichai0017/hasty/internal/models"
)

// Unit conversion factors fixed by the reporting template.
const (
	DecimalsPerHectare = 247.10514233241506
	HectaresPerAcre    = 0.4046
	KilogramsPerTonne  = 1000.0
)

const (
	unitKg      = "kg"
	unitDecimal = "dec"
	unitAcre    = "acre"
)

func normalizeUnit(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}

// ProductionContribution returns count*production in tonnes (or native units
// for livestock, which are never converted).
func ProductionContribution(ct models.CommodityType, unit string, count, production float64) float64 {
	if ct == models.CommodityLivestock {
		return count * production
	}
	if normalizeUnit(unit) == unitKg {
		return (count * production) / KilogramsPerTonne
	}
	return count * production
}

// AreaContribution returns count*area in hectares. Units other than dec and
// acre are taken as hectares already.
func AreaContribution(unit string, count, area float64) float64 {
	switch normalizeUnit(unit) {
	case unitDecimal:
		return (count * area) / DecimalsPerHectare
	case unitAcre:
		return (count * area) * HectaresPerAcre
	default:
		return count * area
	}
}

// VolumeContribution returns count*quantity sold, kg converted to tonnes
// except for livestock.
func VolumeContribution(ct models.CommodityType, unit string, count, quantity float64) float64 {
	if ct == models.CommodityLivestock {
		return count * quantity
	}
	if normalizeUnit(unit) == unitKg {
		return (count * quantity) / KilogramsPerTonne
	}
	return count * quantity
}

// ValueContribution converts count*value into dollars, rounded to cents.
// A zero rate means no conversion.
func ValueContribution(count, value, rate float64) float64 {
	if rate == 0 {
		rate = models.DefaultPerDollarRate
	}
	return round2((count * value) / rate)
}

// round2 rounds the exact binary value to two decimals, ties to even, the
// way the reporting template does: 2.675 is stored just below 2.675 and
// becomes 2.67.
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil || r == 0 {
		return 0
	}
	return r
}

// round0 rounds half to even. Whole numbers need no scaling, so the float
// result is exact.
func round0(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if r := math.RoundToEven(v); r != 0 {
		return r
	}
	return 0
}
