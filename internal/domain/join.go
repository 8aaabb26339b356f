package domain

import "sort"

// Tables holds the parsed rows of every source. A source that failed to load has no entry.
type Tables map[Dataset][]Row

// Join seeds one CountyRecord per economic row and merges every other source
// onto it. Housing, population, historical population and employment join on
// FIPS; the benchmark crosswalk joins on (normalized county name, state
// abbreviation) because its own FIPS column is unreliable. Rows that match no
// seeded county are counted as join misses and never create records.
// Derived fields are computed once after all joins. Records are returned sorted by FIPS.
func Join(tables Tables) ([]*CountyRecord, Diagnostics) {
	diag := newDiagnostics()

	counties, byFIPS := seedCounties(tables[DatasetEconomic], &diag)

	mergeByFIPS(DatasetHousing, tables[DatasetHousing], byFIPS, &diag, applyHousing)
	mergeByFIPS(DatasetPopulation, tables[DatasetPopulation], byFIPS, &diag, func(c *CountyRecord, r Row) {
		c.TotalPopulation = r.Num(colPopulation...)
	})
	mergeByFIPS(DatasetPopulationHistorical, tables[DatasetPopulationHistorical], byFIPS, &diag, func(c *CountyRecord, r Row) {
		c.HistoricalPopulation = r.Num(colPopulation...)
	})
	mergeByFIPS(DatasetEmployment, tables[DatasetEmployment], byFIPS, &diag, applyEmployment)
	joinBenchmarks(tables[DatasetFMR], counties, &diag)

	for _, c := range counties {
		deriveFields(&c.Attributes)
	}
	return counties, diag
}

func seedCounties(rows []Row, diag *Diagnostics) ([]*CountyRecord, map[string]*CountyRecord) {
	byFIPS := make(map[string]*CountyRecord, len(rows))
	counties := make([]*CountyRecord, 0, len(rows))

	for _, r := range rows {
		fips := ExtractFIPS(r.Text(colGeoID...))
		if fips == "" {
			diag.DroppedNoFIPS[DatasetEconomic]++
			continue
		}
		if _, dup := byFIPS[fips]; dup {
			continue
		}
		county, state, ok := SplitCountyName(r.Text(colName...))
		if !ok {
			diag.ParseWarnings[DatasetEconomic]++
			continue
		}
		abbr, _ := StateAbbreviation(state)

		c := &CountyRecord{
			FIPS:      fips,
			Name:      county,
			State:     state,
			StateAbbr: abbr,
		}
		c.MedianHouseholdIncome = r.Num(colMedianIncome...)
		c.MeanHouseholdIncome = r.Num(colMeanIncome...)
		c.PovertyRate = r.Num(colPovertyRate...)
		c.LaborForceParticipationRate = r.Num(colLaborForce...)
		c.EmploymentRate = r.Num(colEmployment...)
		c.UnemploymentRate = r.Num(colUnemployment...)

		byFIPS[fips] = c
		counties = append(counties, c)
	}

	sort.Slice(counties, func(i, j int) bool { return counties[i].FIPS < counties[j].FIPS })
	return counties, byFIPS
}

// mergeByFIPS indexes a secondary source by FIPS (first row wins) and applies
// each indexed row to the matching seeded county.
func mergeByFIPS(ds Dataset, rows []Row, byFIPS map[string]*CountyRecord, diag *Diagnostics, apply func(*CountyRecord, Row)) {
	if len(rows) == 0 {
		return
	}

	index := make(map[string]Row, len(rows))
	for _, r := range rows {
		fips := ExtractFIPS(r.Text(colGeoID...))
		if fips == "" {
			diag.DroppedNoFIPS[ds]++
			continue
		}
		if _, dup := index[fips]; !dup {
			index[fips] = r
		}
	}

	for fips, r := range index {
		c, ok := byFIPS[fips]
		if !ok {
			diag.JoinMisses[ds]++
			continue
		}
		apply(c, r)
	}
}

func applyHousing(c *CountyRecord, r Row) {
	c.TotalHousingUnits = r.Num(colHousingUnits...)
	c.OccupiedUnits = r.Num(colOccupied...)
	c.VacantUnits = r.Num(colVacant...)
	c.VacancyRate = r.Num(colVacancyRate...)
	c.OwnerOccupiedUnits = r.Num(colOwner...)
	c.RenterOccupiedUnits = r.Num(colRenter...)
	c.MedianHomeValue = r.Num(colHomeValue...)
	c.MedianGrossRent = r.Num(colGrossRent...)
}

// applyEmployment lets the employment table override the economic table's
// rates where it has a value.
func applyEmployment(c *CountyRecord, r Row) {
	c.Population16Plus = r.Num(colPop16...)
	if v := r.Num(colS2301LFPR...); v != nil {
		c.LaborForceParticipationRate = v
	}
	if v := r.Num(colS2301EmpRate...); v != nil {
		c.EmploymentRate = v
	}
	if v := r.Num(colS2301Unemp...); v != nil {
		c.UnemploymentRate = v
	}
}

// joinBenchmarks attaches benchmark rents and the crosswalk area name.
// Counties without a match keep null rent fields.
func joinBenchmarks(rows []Row, counties []*CountyRecord, diag *Diagnostics) {
	if len(rows) == 0 {
		return
	}

	bench := make(map[string]Row, len(rows))
	for _, r := range rows {
		county := r.Text(colFMRCounty...)
		state := r.Text(colFMRState...)
		if county == "" || state == "" {
			diag.JoinMisses[DatasetFMR]++
			continue
		}
		key := BenchmarkKey(county, state)
		if _, dup := bench[key]; dup {
			diag.DuplicateBenchmarks++
			continue
		}
		bench[key] = r
	}

	matched := make(map[string]struct{}, len(counties))
	for _, c := range counties {
		if c.StateAbbr == "" {
			continue
		}
		key := BenchmarkKey(c.Name, c.StateAbbr)
		r, ok := bench[key]
		if !ok {
			continue
		}
		matched[key] = struct{}{}

		c.FMR0BR = r.Num(colFMR0...)
		c.FMR1BR = r.Num(colFMR1...)
		c.FMRRent = r.Num(colFMR2...)
		c.FMR3BR = r.Num(colFMR3...)
		c.FMR4BR = r.Num(colFMR4...)
		c.MSAName = r.Text(colFMRArea...)
		if m := r.Num(colFMRMetro...); m != nil && *m == 1 {
			c.Metro = true
		}
	}
	diag.JoinMisses[DatasetFMR] += len(bench) - len(matched)
}
