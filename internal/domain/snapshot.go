package domain

import (
	"fmt"
	"sync/atomic"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze snapshot timestamps via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for snapshot stamping. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

var runSeq atomic.Uint64

// Build runs one full enrichment cycle: join, classify and estimate every
// county, aggregate MSAs and classify and estimate them at MSA granularity.
// Every call returns a wholly new snapshot; nothing is shared with earlier ones.
// A nil tuning uses the embedded defaults.
func Build(tables Tables, statuses []LoadStatus, t *Tuning) *Snapshot {
	if t == nil {
		t = DefaultTuning()
	}

	counties, diag := Join(tables)
	for _, s := range statuses {
		if s.Warnings > 0 {
			diag.ParseWarnings[s.Dataset] += s.Warnings
		}
	}

	for _, c := range counties {
		c.Classification = Classify(c.MarketInputs(), GranularityCounty, t)
		c.Rent = EstimateRent(c.FMRRent, c.Classification, c.RentInputs(), t)
	}

	msas, unmapped := Aggregate(counties)
	for _, m := range msas {
		m.Classification = Classify(m.MarketInputs(), GranularityMSA, t)
		m.Rent = EstimateRent(m.FMRRent, m.Classification, m.RentInputs(), t)
	}
	diag.Unmapped = unmapped

	now := clock.Now().UTC()
	snap := &Snapshot{
		RunID:       fmt.Sprintf("%s-%d", now.Format("20060102T150405Z"), runSeq.Add(1)),
		GeneratedAt: now,
		Counties:    make(map[string]*CountyRecord, len(counties)),
		MSAs:        make(map[string]*MSARecord, len(msas)),
		Statuses:    append([]LoadStatus(nil), statuses...),
		Diagnostics: diag,
	}
	for _, c := range counties {
		snap.Counties[c.FIPS] = c
	}
	for _, m := range msas {
		snap.MSAs[m.Name] = m
	}
	return snap
}

// Status returns the load status of a dataset, if it was attempted.
func (s *Snapshot) Status(ds Dataset) (LoadStatus, bool) {
	for _, st := range s.Statuses {
		if st.Dataset == ds {
			return st, true
		}
	}
	return LoadStatus{}, false
}

// Record returns the county or MSA record for an identifier at the given granularity.
func (s *Snapshot) Record(g Granularity, id string) (MetricSource, bool) {
	switch g {
	case GranularityCounty:
		if c, ok := s.Counties[id]; ok {
			return c, true
		}
	case GranularityMSA:
		if m, ok := s.MSAs[id]; ok {
			return m, true
		}
	}
	return nil, false
}

// Metric resolves one dimension for every record of a granularity. Unknown values are nil.
func (s *Snapshot) Metric(g Granularity, dim MetricDimension) map[string]*float64 {
	out := make(map[string]*float64)
	add := func(id string, r MetricSource) {
		if v, ok := MetricValue(r, dim); ok {
			out[id] = ptr(v)
			return
		}
		out[id] = nil
	}
	switch g {
	case GranularityCounty:
		for id, c := range s.Counties {
			add(id, c)
		}
	case GranularityMSA:
		for id, m := range s.MSAs {
			add(id, m)
		}
	}
	return out
}

// ParseGranularity validates a granularity name.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityCounty, GranularityMSA:
		return Granularity(s), nil
	default:
		return "", fmt.Errorf("unknown granularity %q", s)
	}
}
