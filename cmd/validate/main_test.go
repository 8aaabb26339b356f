package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/census-market-etl/internal/domain"
)

func buildSnapshot(t *testing.T) *domain.Snapshot {
	t.Helper()
	parse := func(ds domain.Dataset, table [][]string) []domain.Row {
		rows, warnings := domain.ParseTable(ds, table)
		require.Zero(t, warnings)
		return rows
	}
	tables := domain.Tables{
		domain.DatasetEconomic: parse(domain.DatasetEconomic, [][]string{
			{"GEO_ID", "NAME", "DP03_0062E", "DP03_0004PE", "DP03_0009PE"},
			{"id", "name", "income", "employed", "unemployed"},
			{"0500000US37183", "Wake County, North Carolina", "96734", "66.1", "4.2"},
			{"0500000US37063", "Durham County, North Carolina", "71234", "64.0", "5.0"},
		}),
		domain.DatasetPopulation: parse(domain.DatasetPopulation, [][]string{
			{"GEO_ID", "B01003_001E"},
			{"0500000US37183", "1150204"},
			{"0500000US37063", "326126"},
		}),
		domain.DatasetPopulationHistorical: parse(domain.DatasetPopulationHistorical, [][]string{
			{"GEO_ID", "B01003_001E"},
			{"0500000US37183", "1023811"},
		}),
		domain.DatasetFMR: parse(domain.DatasetFMR, [][]string{
			{"countyname", "state_alpha", "hud_area_name", "metro", "fmr_2"},
			{"Wake County", "NC", "Raleigh, NC MSA", "1", "1521"},
		}),
	}
	return domain.Build(tables, nil, nil)
}

func TestValidatePhasesPass(t *testing.T) {
	snap := buildSnapshot(t)

	for _, p := range []*phase{
		validateGrowth(snap),
		validateClassification(snap, domain.DefaultTuning()),
		validateRent(snap),
		validateMSAMembership(snap),
	} {
		assert.True(t, p.passed(), "%s: %v", p.name, p.errors)
	}
}

func TestValidateDetectsViolations(t *testing.T) {
	snap := buildSnapshot(t)
	wake := snap.Counties["37183"]
	durham := snap.Counties["37063"]

	growth := 99.0
	durham.PopulationGrowth = &growth
	assert.False(t, validateGrowth(snap).passed())

	wake.Classification.Score += 5
	assert.False(t, validateClassification(snap, domain.DefaultTuning()).passed())

	wake.Rent.LuxuryRent = 1
	assert.False(t, validateRent(snap).passed())

	snap.MSAs["Raleigh, NC MSA"].CountyCount = 3
	assert.False(t, validateMSAMembership(snap).passed())
}

func TestValidateClassificationScoreBound(t *testing.T) {
	snap := buildSnapshot(t)
	snap.Counties["37063"].Classification.Score = 28

	p := validateClassification(snap, domain.DefaultTuning())

	require.False(t, p.passed())
	assert.Contains(t, p.errors[0], "outside [0, 26.5]")
}
