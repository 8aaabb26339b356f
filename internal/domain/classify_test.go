package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_GrowthOnly(t *testing.T) {
	got := Classify(MarketInputs{PopulationGrowth: ptr(5)}, GranularityCounty, nil)

	assert.Equal(t, FactorBreakdown{Growth: 30}, got.Factors)
	assert.InDelta(t, 7.5, got.Score, 1e-9)
	assert.Equal(t, MarketCool, got.Type)
	assert.Equal(t, 20, got.Confidence)
	assert.Equal(t, 1, got.Indicators)
}

func TestClassify_NoIndicators(t *testing.T) {
	got := Classify(MarketInputs{}, GranularityCounty, nil)

	assert.Equal(t, MarketClassification{Type: MarketUnknown}, got)
}

func TestClassify_HousingNeedsBothInputs(t *testing.T) {
	got := Classify(MarketInputs{VacancyRate: ptr(2)}, GranularityCounty, nil)
	assert.Equal(t, MarketUnknown, got.Type)

	got = Classify(MarketInputs{RenterPercentage: ptr(60)}, GranularityCounty, nil)
	assert.Equal(t, MarketUnknown, got.Type)

	got = Classify(MarketInputs{VacancyRate: ptr(2), RenterPercentage: ptr(60)}, GranularityCounty, nil)
	assert.Equal(t, 25.0, got.Factors.Housing)
	assert.Equal(t, 1, got.Indicators)
	assert.Equal(t, 20, got.Confidence)
}

func TestClassify_AllIndicators(t *testing.T) {
	in := MarketInputs{
		PopulationGrowth:      ptr(1),       // 20
		EmploymentStrength:    ptr(90.5),    // 30
		MedianHouseholdIncome: ptr(85000),   // 22
		VacancyRate:           ptr(4),       // 12
		RenterPercentage:      ptr(45),      // 8
		TotalPopulation:       ptr(1500000), // county 15, msa 12
	}

	county := Classify(in, GranularityCounty, nil)
	assert.Equal(t, FactorBreakdown{Growth: 20, Employment: 30, Income: 22, Housing: 20, Demographics: 15}, county.Factors)
	assert.InDelta(t, 22.4, county.Score, 1e-9)
	assert.Equal(t, MarketHot, county.Type)
	assert.Equal(t, 100, county.Confidence)
	assert.Equal(t, 5, county.Indicators)

	msa := Classify(in, GranularityMSA, nil)
	assert.Equal(t, 12.0, msa.Factors.Demographics)
	assert.InDelta(t, 22.1, msa.Score, 1e-9)
}

func TestClassify_GrowthBands(t *testing.T) {
	tests := []struct {
		growth float64
		want   float64
	}{
		{3.1, 30},
		{3, 25},
		{1.6, 25},
		{0.6, 20},
		{0.1, 15},
		{0, 10},
		{-0.5, 10},
		{-1, 5},
		{-4, 5},
	}
	for _, tt := range tests {
		got := Classify(MarketInputs{PopulationGrowth: ptr(tt.growth)}, GranularityCounty, nil)
		assert.Equal(t, tt.want, got.Factors.Growth, "growth %v", tt.growth)
	}
}

func TestClassify_DemographicBandsByGranularity(t *testing.T) {
	tests := []struct {
		pop    float64
		county float64
		msa    float64
	}{
		{2500000, 15, 15},
		{1200000, 15, 12},
		{600000, 15, 10},
		{300000, 12, 8},
		{150000, 10, 6},
		{60000, 8, 6},
		{10000, 6, 6},
	}
	for _, tt := range tests {
		in := MarketInputs{TotalPopulation: ptr(tt.pop)}
		assert.Equal(t, tt.county, Classify(in, GranularityCounty, nil).Factors.Demographics, "county %v", tt.pop)
		assert.Equal(t, tt.msa, Classify(in, GranularityMSA, nil).Factors.Demographics, "msa %v", tt.pop)
	}
}

func TestTierFor(t *testing.T) {
	tuning := DefaultTuning()
	tests := []struct {
		score float64
		want  MarketType
	}{
		{30, MarketSuperHot},
		{23, MarketSuperHot},
		{22.9, MarketHot},
		{18, MarketHot},
		{14, MarketWarm},
		{10, MarketAverage},
		{7, MarketCool},
		{6.9, MarketCold},
		{0.5, MarketCold},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tuning.tierFor(tt.score), "score %v", tt.score)
	}
}

func TestMaxScore(t *testing.T) {
	tuning := DefaultTuning()

	assert.Equal(t, 26.5, tuning.MaxScore(GranularityCounty))
	assert.Equal(t, 26.5, tuning.MaxScore(GranularityMSA))

	top := Classify(MarketInputs{
		PopulationGrowth:      ptr(5),
		EmploymentStrength:    ptr(90),
		MedianHouseholdIncome: ptr(120000),
		VacancyRate:           ptr(2),
		RenterPercentage:      ptr(55),
		TotalPopulation:       ptr(3000000),
	}, GranularityMSA, tuning)
	assert.Equal(t, tuning.MaxScore(GranularityMSA), top.Score)
}
