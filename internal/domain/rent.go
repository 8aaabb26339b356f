package domain

import "math"

// EstimateRent projects market, competitive, premium and luxury rents from a
// benchmark (FMR) rent. The market tier picks the multiplier row; income,
// growth and vacancy each add an independent delta to a shared adjustment
// factor that scales all four multipliers. Returns nil without a positive benchmark.
func EstimateRent(fmr *float64, c MarketClassification, in RentInputs, t *Tuning) *RentEstimate {
	if fmr == nil || *fmr <= 0 {
		return nil
	}
	if t == nil {
		t = DefaultTuning()
	}

	adj := 1.0
	if in.MedianHouseholdIncome != nil {
		adj += t.RentAdjustments.Income.Score(*in.MedianHouseholdIncome)
	}
	if in.PopulationGrowth != nil {
		adj += t.RentAdjustments.Growth.Score(*in.PopulationGrowth)
	}
	if in.VacancyRate != nil {
		adj += t.RentAdjustments.Vacancy.Score(*in.VacancyRate)
	}

	m := t.multipliersFor(c.Type)
	base := *fmr
	market := math.Round(base * m.Market * adj)
	luxury := math.Round(base * m.Luxury * adj)

	est := &RentEstimate{
		FMR:                       base,
		MarketMedian:              market,
		CompetitiveRent:           math.Round(base * m.Competitive * adj),
		PremiumRent:               math.Round(base * m.Premium * adj),
		LuxuryRent:                luxury,
		MarketType:                c.Type,
		MarketScore:               c.Score,
		Confidence:                c.Confidence,
		AdjustmentFactor:          roundTo(adj, 4),
		MarketPremiumVsFMRPercent: math.Round((m.Market*adj - 1) * 100),
		RentSpread:                luxury - market,
		CashFlowPotential:         cashFlowFor(c.Type),
	}

	if in.MedianHouseholdIncome != nil && *in.MedianHouseholdIncome > 0 {
		idx := math.Round(market / (*in.MedianHouseholdIncome / 12) * 100)
		est.AffordabilityIndex = &idx
	}
	return est
}

func cashFlowFor(mt MarketType) CashFlowPotential {
	switch mt {
	case MarketSuperHot, MarketHot:
		return CashFlowHigh
	case MarketWarm:
		return CashFlowMedium
	default:
		return CashFlowConservative
	}
}
