package domain

import "time"

// Dataset identifies one of the tabular snapshot sources.
type Dataset string

const (
	DatasetEconomic             Dataset = "economic"
	DatasetHousing              Dataset = "housing"
	DatasetPopulation           Dataset = "population"
	DatasetPopulationHistorical Dataset = "population_historical"
	DatasetEmployment           Dataset = "employment"
	DatasetFMR                  Dataset = "fmr"
)

// AllDatasets lists every source in load order. Economic comes first because it seeds the county set.
var AllDatasets = []Dataset{
	DatasetEconomic,
	DatasetHousing,
	DatasetPopulation,
	DatasetPopulationHistorical,
	DatasetEmployment,
	DatasetFMR,
}

// HasLabelRow reports whether exports of this dataset repeat a variable-label
// row directly beneath the header (data.census.gov table downloads do this).
func (d Dataset) HasLabelRow() bool {
	switch d {
	case DatasetEconomic, DatasetHousing, DatasetEmployment:
		return true
	default:
		return false
	}
}

// Value is one parsed cell: Num is set when the cell held a usable number.
type Value struct {
	Num  *float64
	Text string
}

// Row maps header names to parsed cells.
type Row map[string]Value

// Num returns the first non-null numeric value among the named columns.
func (r Row) Num(columns ...string) *float64 {
	for _, c := range columns {
		if v, ok := r[c]; ok && v.Num != nil {
			return v.Num
		}
	}
	return nil
}

// Text returns the first non-empty text value among the named columns.
func (r Row) Text(columns ...string) string {
	for _, c := range columns {
		if v, ok := r[c]; ok && v.Text != "" {
			return v.Text
		}
	}
	return ""
}

// LoadStatus records the outcome of loading one source.
type LoadStatus struct {
	Dataset  Dataset `json:"dataset"`
	Loaded   bool    `json:"loaded"`
	Rows     int     `json:"rows"`
	Warnings int     `json:"parse_warnings"`
	Error    string  `json:"error,omitempty"`
}

// Attributes holds the census, benchmark and derived fields shared by county
// and MSA records. Nil means the value is unknown; it is never coerced to zero.
type Attributes struct {
	MedianHouseholdIncome       *float64 `json:"median_household_income"`
	MeanHouseholdIncome         *float64 `json:"mean_household_income"`
	PovertyRate                 *float64 `json:"poverty_rate"`
	EmploymentRate              *float64 `json:"employment_rate"`
	UnemploymentRate            *float64 `json:"unemployment_rate"`
	LaborForceParticipationRate *float64 `json:"labor_force_participation_rate"`
	Population16Plus            *float64 `json:"population_16_plus"`

	TotalHousingUnits   *float64 `json:"total_housing_units"`
	OccupiedUnits       *float64 `json:"occupied_units"`
	VacantUnits         *float64 `json:"vacant_units"`
	VacancyRate         *float64 `json:"vacancy_rate"`
	OwnerOccupiedUnits  *float64 `json:"owner_occupied_units"`
	RenterOccupiedUnits *float64 `json:"renter_occupied_units"`
	MedianGrossRent     *float64 `json:"median_gross_rent"`
	MedianHomeValue     *float64 `json:"median_home_value"`

	TotalPopulation      *float64 `json:"total_population"`
	HistoricalPopulation *float64 `json:"historical_population"`

	// FMRRent is the two-bedroom benchmark rent.
	FMRRent *float64 `json:"fmr_rent"`
	FMR0BR  *float64 `json:"fmr_0br"`
	FMR1BR  *float64 `json:"fmr_1br"`
	FMR3BR  *float64 `json:"fmr_3br"`
	FMR4BR  *float64 `json:"fmr_4br"`

	HomeownershipRate  *float64 `json:"homeownership_rate"`
	RenterPercentage   *float64 `json:"renter_percentage"`
	PopulationGrowth   *float64 `json:"population_growth"`
	EmploymentStrength *float64 `json:"employment_strength"`
	HousingMarketScore *float64 `json:"housing_market_score"`
}

// MarketInputs returns the fields the classifier scores.
func (a *Attributes) MarketInputs() MarketInputs {
	return MarketInputs{
		PopulationGrowth:      a.PopulationGrowth,
		EmploymentStrength:    a.EmploymentStrength,
		MedianHouseholdIncome: a.MedianHouseholdIncome,
		VacancyRate:           a.VacancyRate,
		RenterPercentage:      a.RenterPercentage,
		TotalPopulation:       a.TotalPopulation,
	}
}

// RentInputs returns the fields the rent estimator adjusts on.
func (a *Attributes) RentInputs() RentInputs {
	return RentInputs{
		MedianHouseholdIncome: a.MedianHouseholdIncome,
		PopulationGrowth:      a.PopulationGrowth,
		VacancyRate:           a.VacancyRate,
	}
}

// CountyRecord is one county after all sources are joined and enriched.
// FIPS is the unique key.
type CountyRecord struct {
	FIPS      string `json:"fips"`
	Name      string `json:"name"`
	State     string `json:"state"`
	StateAbbr string `json:"state_abbr,omitempty"`

	// MSAName and Metro come from the benchmark crosswalk; MSAName is empty when unmatched.
	MSAName string `json:"msa_name,omitempty"`
	Metro   bool   `json:"metro"`

	Attributes

	Classification MarketClassification `json:"classification"`
	Rent           *RentEstimate        `json:"rent_estimate"`
}

// MSARecord aggregates the counties sharing one crosswalk area name.
type MSARecord struct {
	Name        string   `json:"name"`
	CountyCount int      `json:"county_count"`
	CountyFIPS  []string `json:"county_fips"`
	States      []string `json:"states"`
	Metro       bool     `json:"metro"`

	Attributes

	Classification MarketClassification `json:"classification"`
	Rent           *RentEstimate        `json:"rent_estimate"`
}

// Granularity selects geography-dependent thresholds.
type Granularity string

const (
	GranularityCounty Granularity = "county"
	GranularityMSA    Granularity = "msa"
)

// MarketType is the investment-attractiveness tier.
type MarketType string

const (
	MarketSuperHot MarketType = "superHot"
	MarketHot      MarketType = "hot"
	MarketWarm     MarketType = "warm"
	MarketAverage  MarketType = "average"
	MarketCool     MarketType = "cool"
	MarketCold     MarketType = "cold"
	MarketUnknown  MarketType = "unknown"
)

// MarketInputs are the classifier's inputs, any of which may be unknown.
type MarketInputs struct {
	PopulationGrowth      *float64
	EmploymentStrength    *float64
	MedianHouseholdIncome *float64
	VacancyRate           *float64
	RenterPercentage      *float64
	TotalPopulation       *float64
}

// FactorBreakdown holds each indicator's raw score; zero when the indicator did not fire.
type FactorBreakdown struct {
	Growth       float64 `json:"growth"`
	Employment   float64 `json:"employment"`
	Income       float64 `json:"income"`
	Housing      float64 `json:"housing"`
	Demographics float64 `json:"demographics"`
}

// MarketClassification is always computed fresh from a record.
type MarketClassification struct {
	Type       MarketType      `json:"type"`
	Score      float64         `json:"score"`
	Confidence int             `json:"confidence"`
	Indicators int             `json:"indicators"`
	Factors    FactorBreakdown `json:"factors"`
}

// CashFlowPotential is a coarse label derived from the market tier.
type CashFlowPotential string

const (
	CashFlowHigh         CashFlowPotential = "High"
	CashFlowMedium       CashFlowPotential = "Medium"
	CashFlowConservative CashFlowPotential = "Conservative"
)

// RentInputs are the continuous adjustment inputs of the rent estimator.
type RentInputs struct {
	MedianHouseholdIncome *float64
	PopulationGrowth      *float64
	VacancyRate           *float64
}

// RentEstimate projects rent percentiles from a benchmark rent.
type RentEstimate struct {
	FMR                       float64           `json:"fmr"`
	MarketMedian              float64           `json:"market_median"`
	CompetitiveRent           float64           `json:"competitive_rent"`
	PremiumRent               float64           `json:"premium_rent"`
	LuxuryRent                float64           `json:"luxury_rent"`
	MarketType                MarketType        `json:"market_type"`
	MarketScore               float64           `json:"market_score"`
	Confidence                int               `json:"confidence"`
	AdjustmentFactor          float64           `json:"adjustment_factor"`
	MarketPremiumVsFMRPercent float64           `json:"market_premium_vs_fmr_percent"`
	RentSpread                float64           `json:"rent_spread"`
	AffordabilityIndex        *float64          `json:"affordability_index"`
	CashFlowPotential         CashFlowPotential `json:"cash_flow_potential"`
}

// Diagnostics counts rows that were skipped or did not join.
type Diagnostics struct {
	ParseWarnings       map[Dataset]int `json:"parse_warnings"`
	DroppedNoFIPS       map[Dataset]int `json:"dropped_no_fips"`
	JoinMisses          map[Dataset]int `json:"join_misses"`
	DuplicateBenchmarks int             `json:"duplicate_benchmarks"`
	Unmapped            []string        `json:"unmapped"`
}

func newDiagnostics() Diagnostics {
	return Diagnostics{
		ParseWarnings: map[Dataset]int{},
		DroppedNoFIPS: map[Dataset]int{},
		JoinMisses:    map[Dataset]int{},
	}
}

// Snapshot is the immutable output of one build.
type Snapshot struct {
	RunID       string                   `json:"run_id"`
	GeneratedAt time.Time                `json:"generated_at"`
	Counties    map[string]*CountyRecord `json:"counties"`
	MSAs        map[string]*MSARecord    `json:"msas"`
	Statuses    []LoadStatus             `json:"statuses"`
	Diagnostics Diagnostics              `json:"diagnostics"`
}
