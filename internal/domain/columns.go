package domain

// Column bindings: the ACS variable code first, then the friendly names used
// by hand-prepared snapshots. The first non-null column wins.
var (
	colGeoID = []string{"GEO_ID", "geo_id", "GEOID", "geoid", "geography"}
	colName  = []string{"NAME", "name", "Geographic Area Name"}

	// Economic characteristics (DP03).
	colMedianIncome = []string{"DP03_0062E", "median_household_income"}
	colMeanIncome   = []string{"DP03_0063E", "mean_household_income"}
	colPovertyRate  = []string{"DP03_0128PE", "poverty_rate"}
	colLaborForce   = []string{"DP03_0002PE", "labor_force_participation_rate"}
	colEmployment   = []string{"DP03_0004PE", "employment_rate"}
	colUnemployment = []string{"DP03_0009PE", "unemployment_rate"}

	// Housing characteristics (DP04).
	colHousingUnits = []string{"DP04_0001E", "total_housing_units"}
	colOccupied     = []string{"DP04_0002E", "occupied_units"}
	colVacant       = []string{"DP04_0003E", "vacant_units"}
	colVacancyRate  = []string{"DP04_0003PE", "vacancy_rate"}
	colOwner        = []string{"DP04_0046E", "owner_occupied_units"}
	colRenter       = []string{"DP04_0047E", "renter_occupied_units"}
	colHomeValue    = []string{"DP04_0089E", "median_home_value"}
	colGrossRent    = []string{"DP04_0134E", "median_gross_rent"}

	// Total population (B01003), current and historical vintages.
	colPopulation = []string{"B01003_001E", "total_population", "POP"}

	// Employment status (S2301).
	colPop16        = []string{"S2301_C01_001E", "population_16_plus"}
	colS2301LFPR    = []string{"S2301_C02_001E", "labor_force_participation_rate"}
	colS2301EmpRate = []string{"S2301_C03_001E", "employment_rate"}
	colS2301Unemp   = []string{"S2301_C04_001E", "unemployment_rate"}

	// HUD Fair Market Rent county crosswalk.
	colFMRArea   = []string{"hud_area_name", "areaname", "msa_name"}
	colFMRMetro  = []string{"metro", "metro_flag"}
	colFMRState  = []string{"state_alpha", "state_abbr", "stusps"}
	colFMRCounty = []string{"countyname", "cntyname", "county_name"}
	colFMR0      = []string{"fmr_0", "fmr0", "Efficiency"}
	colFMR1      = []string{"fmr_1", "fmr1", "One-Bedroom"}
	colFMR2      = []string{"fmr_2", "fmr2", "Two-Bedroom"}
	colFMR3      = []string{"fmr_3", "fmr3", "Three-Bedroom"}
	colFMR4      = []string{"fmr_4", "fmr4", "Four-Bedroom"}
)
