package domain

import "sort"

// WeightedAverage averages the values whose value and weight are both non-nil
// and whose weight is positive. It returns nil when no operand is eligible,
// never zero. A single eligible operand is returned unchanged.
func WeightedAverage(values, weights []*float64) *float64 {
	var (
		sum, total float64
		eligible   int
		only       float64
	)
	for i, v := range values {
		if v == nil || i >= len(weights) || weights[i] == nil || *weights[i] <= 0 {
			continue
		}
		sum += *v * *weights[i]
		total += *weights[i]
		only = *v
		eligible++
	}
	switch eligible {
	case 0:
		return nil
	case 1:
		return ptr(only)
	default:
		return ptr(sum / total)
	}
}

// sumOf adds the non-nil values; nil when every value is nil.
func sumOf(values []*float64) *float64 {
	var (
		sum  float64
		seen bool
	)
	for _, v := range values {
		if v != nil {
			sum += *v
			seen = true
		}
	}
	if !seen {
		return nil
	}
	return ptr(sum)
}

// Aggregate groups counties by their crosswalk area name into MSA records.
// Counties without an area name are left out and their FIPS returned as
// unmapped. Counts are summed and every rate, ratio or price is weighted by
// the denominator it describes. MSAs come back sorted by name.
// Classification and rent are not computed here.
func Aggregate(counties []*CountyRecord) ([]*MSARecord, []string) {
	groups := make(map[string][]*CountyRecord)
	var unmapped []string

	for _, c := range counties {
		if c.MSAName == "" {
			unmapped = append(unmapped, c.FIPS)
			continue
		}
		groups[c.MSAName] = append(groups[c.MSAName], c)
	}

	msas := make([]*MSARecord, 0, len(groups))
	for name, members := range groups {
		msas = append(msas, aggregateGroup(name, members))
	}
	sort.Slice(msas, func(i, j int) bool { return msas[i].Name < msas[j].Name })
	sort.Strings(unmapped)
	return msas, unmapped
}

func aggregateGroup(name string, members []*CountyRecord) *MSARecord {
	m := &MSARecord{
		Name:        name,
		CountyCount: len(members),
		CountyFIPS:  make([]string, 0, len(members)),
	}

	states := make(map[string]struct{})
	for _, c := range members {
		m.CountyFIPS = append(m.CountyFIPS, c.FIPS)
		st := c.StateAbbr
		if st == "" {
			st = c.State
		}
		if st != "" {
			states[st] = struct{}{}
		}
		if c.Metro {
			m.Metro = true
		}
	}
	sort.Strings(m.CountyFIPS)
	for st := range states {
		m.States = append(m.States, st)
	}
	sort.Strings(m.States)

	col := func(get func(*Attributes) *float64) []*float64 {
		out := make([]*float64, len(members))
		for i, c := range members {
			out[i] = get(&c.Attributes)
		}
		return out
	}

	population := col(func(x *Attributes) *float64 { return x.TotalPopulation })
	byPopulation := func(get func(*Attributes) *float64) *float64 {
		return WeightedAverage(col(get), population)
	}

	a := &m.Attributes

	a.TotalPopulation = sumOf(population)
	a.Population16Plus = sumOf(col(func(x *Attributes) *float64 { return x.Population16Plus }))
	a.TotalHousingUnits = sumOf(col(func(x *Attributes) *float64 { return x.TotalHousingUnits }))
	a.OccupiedUnits = sumOf(col(func(x *Attributes) *float64 { return x.OccupiedUnits }))
	a.VacantUnits = sumOf(col(func(x *Attributes) *float64 { return x.VacantUnits }))
	a.OwnerOccupiedUnits = sumOf(col(func(x *Attributes) *float64 { return x.OwnerOccupiedUnits }))
	a.RenterOccupiedUnits = sumOf(col(func(x *Attributes) *float64 { return x.RenterOccupiedUnits }))

	a.VacancyRate = WeightedAverage(
		col(func(x *Attributes) *float64 { return x.VacancyRate }),
		col(func(x *Attributes) *float64 { return x.TotalHousingUnits }),
	)
	a.MedianGrossRent = WeightedAverage(
		col(func(x *Attributes) *float64 { return x.MedianGrossRent }),
		col(func(x *Attributes) *float64 { return x.RenterOccupiedUnits }),
	)
	a.MedianHomeValue = WeightedAverage(
		col(func(x *Attributes) *float64 { return x.MedianHomeValue }),
		col(func(x *Attributes) *float64 { return x.OwnerOccupiedUnits }),
	)

	a.MedianHouseholdIncome = byPopulation(func(x *Attributes) *float64 { return x.MedianHouseholdIncome })
	a.MeanHouseholdIncome = byPopulation(func(x *Attributes) *float64 { return x.MeanHouseholdIncome })
	a.PovertyRate = byPopulation(func(x *Attributes) *float64 { return x.PovertyRate })
	a.EmploymentRate = byPopulation(func(x *Attributes) *float64 { return x.EmploymentRate })
	a.UnemploymentRate = byPopulation(func(x *Attributes) *float64 { return x.UnemploymentRate })
	a.LaborForceParticipationRate = byPopulation(func(x *Attributes) *float64 { return x.LaborForceParticipationRate })

	a.FMR0BR = byPopulation(func(x *Attributes) *float64 { return x.FMR0BR })
	a.FMR1BR = byPopulation(func(x *Attributes) *float64 { return x.FMR1BR })
	a.FMRRent = byPopulation(func(x *Attributes) *float64 { return x.FMRRent })
	a.FMR3BR = byPopulation(func(x *Attributes) *float64 { return x.FMR3BR })
	a.FMR4BR = byPopulation(func(x *Attributes) *float64 { return x.FMR4BR })

	a.HistoricalPopulation = sumOf(col(func(x *Attributes) *float64 { return x.HistoricalPopulation }))

	deriveFields(a)

	// Growth only counts counties that report both vintages.
	var current, historical []*float64
	for _, c := range members {
		if c.TotalPopulation != nil && c.HistoricalPopulation != nil {
			current = append(current, c.TotalPopulation)
			historical = append(historical, c.HistoricalPopulation)
		}
	}
	a.PopulationGrowth = nil
	if cur, hist := sumOf(current), sumOf(historical); cur != nil && hist != nil && *hist > 0 {
		a.PopulationGrowth = ptr((*cur - *hist) / *hist * 100)
	}
	return m
}
