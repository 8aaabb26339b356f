package domain

// DeriveCountyFields recomputes the derived fields of a record from its joined
// attributes. Existing derived values are overwritten.
func DeriveCountyFields(c *CountyRecord) {
	deriveFields(&c.Attributes)
}

// deriveFields is shared by county and MSA records so both granularities use
// identical formulas.
func deriveFields(a *Attributes) {
	if a.VacancyRate == nil && a.VacantUnits != nil && a.TotalHousingUnits != nil && *a.TotalHousingUnits > 0 {
		a.VacancyRate = ptr(*a.VacantUnits / *a.TotalHousingUnits * 100)
	}

	a.HomeownershipRate, a.RenterPercentage = nil, nil
	if a.OwnerOccupiedUnits != nil && a.OccupiedUnits != nil && *a.OccupiedUnits > 0 {
		ho := *a.OwnerOccupiedUnits / *a.OccupiedUnits * 100
		a.HomeownershipRate = ptr(ho)
		a.RenterPercentage = ptr(100 - ho)
	}

	a.PopulationGrowth = nil
	if a.TotalPopulation != nil && a.HistoricalPopulation != nil && *a.HistoricalPopulation > 0 {
		a.PopulationGrowth = ptr((*a.TotalPopulation - *a.HistoricalPopulation) / *a.HistoricalPopulation * 100)
	}

	a.EmploymentStrength = nil
	if a.EmploymentRate != nil && a.UnemploymentRate != nil {
		a.EmploymentStrength = ptr(*a.EmploymentRate - *a.UnemploymentRate*1.5)
	}

	a.HousingMarketScore = nil
	if a.RenterPercentage != nil && a.VacancyRate != nil {
		a.HousingMarketScore = ptr(*a.RenterPercentage - *a.VacancyRate*2)
	}
}

func ptr(v float64) *float64 { return &v }
