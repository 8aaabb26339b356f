package domain

import "fmt"

// MetricDimension names a value that can be shaded on the heat map.
type MetricDimension string

const (
	MetricPopulationGrowth   MetricDimension = "populationGrowth"
	MetricEmploymentStrength MetricDimension = "employmentStrength"
	MetricHousingMarketScore MetricDimension = "housingMarketScore"
	// MetricMarketRent is the estimated market rent, falling back to the
	// private market (median gross) rent when no estimate exists.
	MetricMarketRent MetricDimension = "marketRent"
)

// MetricDimensions lists the supported dimensions.
var MetricDimensions = []MetricDimension{
	MetricPopulationGrowth,
	MetricEmploymentStrength,
	MetricHousingMarketScore,
	MetricMarketRent,
}

// ParseMetricDimension validates a dimension name.
func ParseMetricDimension(s string) (MetricDimension, error) {
	for _, d := range MetricDimensions {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown metric dimension %q", s)
}

// MetricSource is a county or MSA record.
type MetricSource interface {
	metricFields() (*Attributes, *RentEstimate)
}

func (c *CountyRecord) metricFields() (*Attributes, *RentEstimate) { return &c.Attributes, c.Rent }
func (m *MSARecord) metricFields() (*Attributes, *RentEstimate)    { return &m.Attributes, m.Rent }

// MetricValue returns the dimension's value and whether it is known.
func MetricValue(r MetricSource, dim MetricDimension) (float64, bool) {
	a, rent := r.metricFields()

	var v *float64
	switch dim {
	case MetricPopulationGrowth:
		v = a.PopulationGrowth
	case MetricEmploymentStrength:
		v = a.EmploymentStrength
	case MetricHousingMarketScore:
		v = a.HousingMarketScore
	case MetricMarketRent:
		if rent != nil {
			return rent.MarketMedian, true
		}
		v = a.MedianGrossRent
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// GetMetricValue is MetricValue with absent data reported as 0. Callers
// cannot tell a missing value from a real zero; prefer MetricValue.
func GetMetricValue(r MetricSource, dim MetricDimension) float64 {
	v, _ := MetricValue(r, dim)
	return v
}
