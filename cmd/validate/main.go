// Command validate checks a snapshot written by cmd/snapshot against the
// data-model invariants: growth nullability, classification consistency,
// rent estimate ordering and MSA membership. It prints a pass/fail report
// per phase and exits non-zero on failure.
//
// Usage:
//
//	go run ./cmd/validate -snapshot data/mock/snapshot.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/couchcryptid/census-market-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	snapshotPath := flag.String("snapshot", "", "path to snapshot JSON")
	tuningFile := flag.String("tuning", "", "tuning override the snapshot was built with")
	flag.Parse()

	if *snapshotPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*snapshotPath, *tuningFile); code != 0 {
		os.Exit(code)
	}
}

func run(snapshotPath, tuningFile string) int {
	fmt.Println("=== Market Snapshot Validation ===")
	fmt.Println()

	snap, err := loadSnapshot(snapshotPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load snapshot: %v\n", err)
		return 1
	}

	var override []byte
	if tuningFile != "" {
		if override, err = os.ReadFile(tuningFile); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: read tuning: %v\n", err)
			return 1
		}
	}
	tuning, err := domain.LoadTuning(override)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: tuning: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateGrowth(snap),
		validateClassification(snap, tuning),
		validateRent(snap),
		validateMSAMembership(snap),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d counties, %d msas, %d unmapped (run %s)\n",
		len(snap.Counties), len(snap.MSAs), len(snap.Diagnostics.Unmapped), snap.RunID)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadSnapshot(path string) (*domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// record pairs a county or MSA with the fields every phase inspects.
type record struct {
	id             string
	granularity    domain.Granularity
	attrs          *domain.Attributes
	classification domain.MarketClassification
	rent           *domain.RentEstimate
}

func records(snap *domain.Snapshot) []record {
	out := make([]record, 0, len(snap.Counties)+len(snap.MSAs))
	for _, fips := range sortedKeys(snap.Counties) {
		c := snap.Counties[fips]
		out = append(out, record{"county " + fips, domain.GranularityCounty, &c.Attributes, c.Classification, c.Rent})
	}
	for _, name := range sortedKeys(snap.MSAs) {
		m := snap.MSAs[name]
		out = append(out, record{"msa " + name, domain.GranularityMSA, &m.Attributes, m.Classification, m.Rent})
	}
	return out
}

// ── Phase 1: growth is present exactly when both vintages are usable ──

// MSA growth is computed from the summed populations of counties reporting
// both vintages, so an MSA is only checked for growth without a usable
// historical population.
func validateGrowth(snap *domain.Snapshot) *phase {
	p := &phase{name: "Phase 1: Population growth nullability"}
	for _, r := range records(snap) {
		a := r.attrs
		usable := a.HistoricalPopulation != nil && *a.HistoricalPopulation > 0
		county := r.granularity == domain.GranularityCounty
		if county {
			usable = usable && a.TotalPopulation != nil
		}
		switch {
		case county && usable && a.PopulationGrowth == nil:
			p.errorf("%s: growth missing with both populations present", r.id)
		case !usable && a.PopulationGrowth != nil:
			p.errorf("%s: growth %.2f without a usable historical population", r.id, *a.PopulationGrowth)
		case county && usable:
			want := (*a.TotalPopulation - *a.HistoricalPopulation) / *a.HistoricalPopulation * 100
			if math.Abs(want-*a.PopulationGrowth) > 0.01 {
				p.errorf("%s: growth %.4f, want %.4f", r.id, *a.PopulationGrowth, want)
			}
		}
	}
	return p
}

// ── Phase 2: classification matches a fresh classification of the record ──

func validateClassification(snap *domain.Snapshot, tuning *domain.Tuning) *phase {
	p := &phase{name: "Phase 2: Classification consistency"}
	for _, r := range records(snap) {
		c := r.classification
		if maxScore := tuning.MaxScore(r.granularity); c.Score < 0 || c.Score > maxScore {
			p.errorf("%s: score %.1f outside [0, %.1f]", r.id, c.Score, maxScore)
		}
		if c.Confidence < 0 || c.Confidence > 100 {
			p.errorf("%s: confidence %d out of range", r.id, c.Confidence)
		}
		if (c.Indicators == 0) != (c.Type == domain.MarketUnknown) {
			p.errorf("%s: type %s with %d indicators", r.id, c.Type, c.Indicators)
		}

		fresh := domain.Classify(r.attrs.MarketInputs(), r.granularity, tuning)
		if fresh != c {
			p.errorf("%s: stored %s/%.1f, recomputed %s/%.1f", r.id, c.Type, c.Score, fresh.Type, fresh.Score)
		}
	}
	return p
}

// ── Phase 3: rent estimates exist with a benchmark and are ordered ──

func validateRent(snap *domain.Snapshot) *phase {
	p := &phase{name: "Phase 3: Rent estimates"}
	for _, r := range records(snap) {
		hasFMR := r.attrs.FMRRent != nil && *r.attrs.FMRRent > 0
		if hasFMR != (r.rent != nil) {
			p.errorf("%s: benchmark present=%t but estimate present=%t", r.id, hasFMR, r.rent != nil)
			continue
		}
		if r.rent == nil {
			continue
		}

		e := r.rent
		if e.MarketType != r.classification.Type {
			p.errorf("%s: estimate tier %s, classification %s", r.id, e.MarketType, r.classification.Type)
		}
		if e.AdjustmentFactor > 0 &&
			(e.MarketMedian > e.CompetitiveRent || e.CompetitiveRent > e.PremiumRent || e.PremiumRent > e.LuxuryRent) {
			p.errorf("%s: rents out of order %.0f/%.0f/%.0f/%.0f", r.id,
				e.MarketMedian, e.CompetitiveRent, e.PremiumRent, e.LuxuryRent)
		}
		if e.RentSpread != e.LuxuryRent-e.MarketMedian {
			p.errorf("%s: spread %.0f, want %.0f", r.id, e.RentSpread, e.LuxuryRent-e.MarketMedian)
		}
	}
	return p
}

// ── Phase 4: MSAs list exactly the counties that point at them ──

func validateMSAMembership(snap *domain.Snapshot) *phase {
	p := &phase{name: "Phase 4: MSA membership"}

	members := map[string][]string{}
	var unmapped []string
	for _, fips := range sortedKeys(snap.Counties) {
		c := snap.Counties[fips]
		if c.MSAName == "" {
			unmapped = append(unmapped, fips)
			continue
		}
		members[c.MSAName] = append(members[c.MSAName], fips)
	}

	for _, name := range sortedKeys(snap.MSAs) {
		m := snap.MSAs[name]
		if m.CountyCount != len(m.CountyFIPS) {
			p.errorf("msa %s: county_count %d, %d fips listed", name, m.CountyCount, len(m.CountyFIPS))
		}
		if !equalStrings(m.CountyFIPS, members[name]) {
			p.errorf("msa %s: lists %v, counties pointing at it %v", name, m.CountyFIPS, members[name])
		}
		delete(members, name)
	}
	for name, fips := range members {
		p.errorf("counties %v name msa %q which is missing", fips, name)
	}

	if !equalStrings(unmapped, snap.Diagnostics.Unmapped) {
		p.errorf("unmapped counties %v, diagnostics report %v", unmapped, snap.Diagnostics.Unmapped)
	}
	return p
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
