package domain

import "math"

// maxIndicators is the confidence denominator. It stays fixed no matter how many indicators fire.
const maxIndicators = 5

// Classify scores a geography on up to five independent indicators and maps
// the weighted sum to a market tier. An indicator whose inputs are missing
// contributes nothing and does not count toward confidence. With no
// indicators at all the result is MarketUnknown.
func Classify(in MarketInputs, g Granularity, t *Tuning) MarketClassification {
	if t == nil {
		t = DefaultTuning()
	}

	var (
		f     FactorBreakdown
		fired int
	)

	if in.PopulationGrowth != nil {
		f.Growth = t.Growth.Score(*in.PopulationGrowth)
		fired++
	}
	if in.EmploymentStrength != nil {
		f.Employment = t.Employment.Score(*in.EmploymentStrength)
		fired++
	}
	if in.MedianHouseholdIncome != nil {
		f.Income = t.Income.Score(*in.MedianHouseholdIncome)
		fired++
	}
	if in.VacancyRate != nil && in.RenterPercentage != nil {
		f.Housing = t.Vacancy.Score(*in.VacancyRate) + t.Renter.Score(*in.RenterPercentage)
		fired++
	}
	if in.TotalPopulation != nil {
		f.Demographics = t.Demographics[g].Score(*in.TotalPopulation)
		fired++
	}

	if fired == 0 {
		return MarketClassification{Type: MarketUnknown}
	}

	w := t.Weights
	score := roundTo(f.Growth*w.Growth+
		f.Employment*w.Employment+
		f.Income*w.Income+
		f.Housing*w.Housing+
		f.Demographics*w.Demographics, 1)

	return MarketClassification{
		Type:       t.tierFor(score),
		Score:      score,
		Confidence: int(math.Round(float64(fired) / maxIndicators * 100)),
		Indicators: fired,
		Factors:    f,
	}
}

// MaxScore is the highest weighted score Classify can return at granularity g.
func (t *Tuning) MaxScore(g Granularity) float64 {
	w := t.Weights
	return roundTo(t.Growth.max()*w.Growth+
		t.Employment.max()*w.Employment+
		t.Income.max()*w.Income+
		(t.Vacancy.max()+t.Renter.max())*w.Housing+
		t.Demographics[g].max()*w.Demographics, 1)
}

func (t *Tuning) tierFor(score float64) MarketType {
	for _, tier := range t.Tiers {
		if score >= tier.AtLeast {
			return tier.Type
		}
	}
	return t.FloorTier
}

// roundTo rounds v half away from zero to the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
