// Package domain joins county-level Census snapshots into enriched county and
// metro-area records, classifies each geography into a market tier and
// projects rents from HUD benchmark rents.
//
// # Data Sources
//
// Six tabular snapshots feed a build. Each is a header row followed by data
// rows:
//
//	economic               ACS DP03 (income, poverty, employment rates)  seeds the county set
//	housing                ACS DP04 (units, vacancy, tenure, value, rent)
//	population             ACS B01003 total population, current vintage
//	population_historical  ACS B01003 total population, five years prior
//	employment             ACS S2301 employment status
//	fmr                    HUD Fair Market Rent county crosswalk
//
// Table downloads from data.census.gov repeat a variable-label row beneath
// the header ("Estimate!!Median household income"); it is skipped for the
// datasets reporting [Dataset.HasLabelRow] when its geography cell is a label
// rather than a geo id. Census API JSON responses have no such row.
//
// # Census Conventions
//
// Geography identifiers:
//
//	"0500000US37183"  summary level 050 (county), FIPS 37183 (Wake County, NC)
//	The five digits after "US" are the county FIPS code: two state digits
//	followed by three county digits. See [ExtractFIPS].
//
// Names are "<county>, <state>" with the full state name:
//
//	"Wake County, North Carolina"
//	"Doña Ana County, New Mexico"
//	"Baltimore city, Maryland"  (independent city, distinct from Baltimore County)
//
// Null markers and annotation codes never become zero:
//
//	"-"    too few sample observations
//	"N"    not available for this geography
//	"(X)"  not applicable
//	-666666666, -888888888, -999999999  estimate or margin could not be computed
//
// Top- and bottom-coded values keep their bound: "250,000+" parses as 250000.
// See [CleanValue].
//
// # Benchmark Join
//
// The FMR crosswalk carries its own FIPS column, but it uses HUD's ten-digit
// county-subdivision codes in New England and is stale for renamed counties.
// The join therefore keys on the normalized county name and two-letter state
// abbreviation. Full state names are translated with an embedded table.
// See [BenchmarkKey] and [StateAbbreviation].
//
// # Scoring
//
// Thresholds, factor weights, tier cutoffs and rent multipliers are loaded
// from an embedded YAML table that can be overridden per deployment. See
// [LoadTuning], [Classify] and [EstimateRent].
package domain
