package domain

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"math"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/tuning.yaml
var defaultTuningYAML []byte

// Step scores a value when it compares true against At.
type Step struct {
	Op    string  `yaml:"op"`
	At    float64 `yaml:"at"`
	Score float64 `yaml:"score"`
}

func (s Step) matches(v float64) bool {
	switch s.Op {
	case ">":
		return v > s.At
	case ">=":
		return v >= s.At
	case "<":
		return v < s.At
	case "<=":
		return v <= s.At
	default:
		return false
	}
}

// Bands is an ordered threshold table: the first matching step wins.
type Bands struct {
	Floor float64 `yaml:"floor"`
	Steps []Step  `yaml:"steps"`
}

// Score returns the score of the first matching step, or the floor.
func (b Bands) Score(v float64) float64 {
	for _, s := range b.Steps {
		if s.matches(v) {
			return s.Score
		}
	}
	return b.Floor
}

func (b Bands) max() float64 {
	m := b.Floor
	for _, s := range b.Steps {
		m = math.Max(m, s.Score)
	}
	return m
}

// FactorWeights are the weights of the five classifier indicators.
type FactorWeights struct {
	Growth       float64 `yaml:"growth"`
	Employment   float64 `yaml:"employment"`
	Income       float64 `yaml:"income"`
	Housing      float64 `yaml:"housing"`
	Demographics float64 `yaml:"demographics"`
}

func (w FactorWeights) sum() float64 {
	return w.Growth + w.Employment + w.Income + w.Housing + w.Demographics
}

// Tier maps a minimum weighted score to a market type.
type Tier struct {
	AtLeast float64    `yaml:"at_least"`
	Type    MarketType `yaml:"type"`
}

// Multipliers are the four rent percentile multipliers applied to the benchmark rent.
type Multipliers struct {
	Market      float64 `yaml:"market"`
	Competitive float64 `yaml:"competitive"`
	Premium     float64 `yaml:"premium"`
	Luxury      float64 `yaml:"luxury"`
}

func (m Multipliers) validate() error {
	if m.Market <= 0 {
		return fmt.Errorf("market multiplier %.2f must be positive", m.Market)
	}
	if m.Competitive < m.Market || m.Premium < m.Competitive || m.Luxury < m.Premium {
		return fmt.Errorf("multipliers %.2f/%.2f/%.2f/%.2f must not decrease", m.Market, m.Competitive, m.Premium, m.Luxury)
	}
	return nil
}

// RentAdjustments hold the additive adjustment deltas per category.
type RentAdjustments struct {
	Income  Bands `yaml:"income"`
	Growth  Bands `yaml:"growth"`
	Vacancy Bands `yaml:"vacancy"`
}

// Tuning holds every threshold the classifier and rent estimator use.
type Tuning struct {
	Weights         FactorWeights              `yaml:"weights"`
	Growth          Bands                      `yaml:"growth"`
	Employment      Bands                      `yaml:"employment"`
	Income          Bands                      `yaml:"income"`
	Vacancy         Bands                      `yaml:"vacancy"`
	Renter          Bands                      `yaml:"renter"`
	Demographics    map[Granularity]Bands      `yaml:"demographics"`
	Tiers           []Tier                     `yaml:"tiers"`
	FloorTier       MarketType                 `yaml:"floor_tier"`
	RentMultipliers map[MarketType]Multipliers `yaml:"rent_multipliers"`
	RentAdjustments RentAdjustments            `yaml:"rent_adjustments"`
}

// DefaultTuning returns the embedded tuning tables. The result is shared and must not be modified.
var DefaultTuning = sync.OnceValue(func() *Tuning {
	t, err := LoadTuning(nil)
	if err != nil {
		panic(fmt.Sprintf("embedded tuning is invalid: %v", err))
	}
	return t
})

// LoadTuning decodes the embedded defaults and then applies override on top.
// Keys absent from override keep their default values, including the fields
// of a demographic band or multiplier row that is only partly overridden.
func LoadTuning(override []byte) (*Tuning, error) {
	var t Tuning
	if err := yaml.Unmarshal(defaultTuningYAML, &t); err != nil {
		return nil, fmt.Errorf("decode default tuning: %w", err)
	}
	if len(override) > 0 {
		if err := t.apply(override); err != nil {
			return nil, fmt.Errorf("decode tuning override: %w", err)
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// tuningEntries captures the map entries of an override undecoded, so each
// entry can be decoded over its default value.
type tuningEntries struct {
	Demographics    map[Granularity]yaml.Node `yaml:"demographics"`
	RentMultipliers map[MarketType]yaml.Node  `yaml:"rent_multipliers"`
}

func (t *Tuning) apply(override []byte) error {
	demographics := maps.Clone(t.Demographics)
	multipliers := maps.Clone(t.RentMultipliers)

	if err := yaml.Unmarshal(override, t); err != nil {
		return err
	}
	var entries tuningEntries
	if err := yaml.Unmarshal(override, &entries); err != nil {
		return err
	}

	// yaml.v3 decodes map values from zero, so entries are redone over the defaults.
	t.Demographics, t.RentMultipliers = demographics, multipliers

	for g, node := range entries.Demographics {
		bands := demographics[g]
		if err := node.Decode(&bands); err != nil {
			return fmt.Errorf("demographics %s: %w", g, err)
		}
		t.Demographics[g] = bands
	}
	for mt, node := range entries.RentMultipliers {
		m := multipliers[mt]
		if err := node.Decode(&m); err != nil {
			return fmt.Errorf("rent multipliers %s: %w", mt, err)
		}
		t.RentMultipliers[mt] = m
	}
	return nil
}

// Validate checks that the tables are complete and ordered.
func (t *Tuning) Validate() error {
	if math.Abs(t.Weights.sum()-1) > 1e-9 {
		return fmt.Errorf("tuning: factor weights sum to %.4f, want 1", t.Weights.sum())
	}
	for _, g := range []Granularity{GranularityCounty, GranularityMSA} {
		if _, ok := t.Demographics[g]; !ok {
			return fmt.Errorf("tuning: missing demographic bands for %s", g)
		}
	}
	if len(t.Tiers) == 0 || t.FloorTier == "" {
		return errors.New("tuning: tiers are required")
	}
	for i := 1; i < len(t.Tiers); i++ {
		if t.Tiers[i].AtLeast >= t.Tiers[i-1].AtLeast {
			return fmt.Errorf("tuning: tier %s must have a lower cutoff than %s", t.Tiers[i].Type, t.Tiers[i-1].Type)
		}
	}
	for _, mt := range []MarketType{MarketSuperHot, MarketHot, MarketWarm, MarketAverage, MarketCool, MarketCold} {
		m, ok := t.RentMultipliers[mt]
		if !ok {
			return fmt.Errorf("tuning: missing rent multipliers for %s", mt)
		}
		if err := m.validate(); err != nil {
			return fmt.Errorf("tuning: rent multipliers for %s: %w", mt, err)
		}
	}
	return nil
}

// multipliersFor returns the multiplier row for a market type; unknown reuses average.
func (t *Tuning) multipliersFor(mt MarketType) Multipliers {
	if m, ok := t.RentMultipliers[mt]; ok {
		return m
	}
	return t.RentMultipliers[MarketAverage]
}
