package domain

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanValue(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want *float64
	}{
		{"nil", nil, nil},
		{"empty string", "", nil},
		{"whitespace", "   ", nil},
		{"dash marker", "-", nil},
		{"N marker", "N", nil},
		{"not applicable", "(X)", nil},
		{"annotation -666", "-666666666", nil},
		{"annotation -888", "-888888888", nil},
		{"annotation -999 embedded", "**-999999999", nil},
		{"numeric annotation", -666666666.0, nil},
		{"NaN", math.NaN(), nil},
		{"plain integer", "42", ptr(42)},
		{"decimal", "7.5", ptr(7.5)},
		{"negative", "-1.2", ptr(-1.2)},
		{"thousands separators", "1,234,567", ptr(1234567)},
		{"dollar", "$85,000", ptr(85000)},
		{"percent", "12.4%", ptr(12.4)},
		{"top coded", "250,000+", ptr(250000)},
		{"bottom coded", "2,500-", ptr(2500)},
		{"float passthrough", 3.25, ptr(3.25)},
		{"int passthrough", 12, ptr(12)},
		{"zero is a value", "0", ptr(0)},
		{"text", "Wake County", nil},
		{"unsupported type", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanValue(tt.raw)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestParseTable(t *testing.T) {
	t.Run("label row skipped for census table exports", func(t *testing.T) {
		table := [][]string{
			{"\ufeffGEO_ID", "NAME", "DP03_0062E"},
			{"Geography", "Geographic Area Name", "Estimate!!Median household income"},
			{"0500000US37183", "Wake County, North Carolina", "96,734"},
		}
		rows, warnings := ParseTable(DatasetEconomic, table)

		require.Len(t, rows, 1)
		assert.Equal(t, 0, warnings)
		assert.Equal(t, "0500000US37183", rows[0].Text("GEO_ID"))
		assert.Equal(t, 96734.0, *rows[0].Num("DP03_0062E"))
	})

	t.Run("label dataset without a label row keeps its first record", func(t *testing.T) {
		table := [][]string{
			{"NAME", "DP03_0062E", "state", "county", "GEO_ID"},
			{"Wake County, North Carolina", "96734", "37", "183", "0500000US37183"},
			{"Durham County, North Carolina", "71234", "37", "063", "0500000US37063"},
		}
		rows, warnings := ParseTable(DatasetEconomic, table)

		require.Len(t, rows, 2)
		assert.Equal(t, 0, warnings)
		assert.Equal(t, "0500000US37183", rows[0].Text("GEO_ID"))
	})

	t.Run("label row detected without a geography column", func(t *testing.T) {
		table := [][]string{
			{"NAME", "DP04_0001E"},
			{"Geographic Area Name", "Estimate!!Total housing units"},
			{"Wake County, North Carolina", "449012"},
		}
		rows, _ := ParseTable(DatasetHousing, table)

		require.Len(t, rows, 1)
		assert.Equal(t, 449012.0, *rows[0].Num("DP04_0001E"))
	})

	t.Run("no label row for api arrays", func(t *testing.T) {
		table := [][]string{
			{"NAME", "B01003_001E", "GEO_ID"},
			{"Wake County, North Carolina", "1150204", "0500000US37183"},
			{"Durham County, North Carolina", "326126", "0500000US37063"},
		}
		rows, warnings := ParseTable(DatasetPopulation, table)

		require.Len(t, rows, 2)
		assert.Equal(t, 0, warnings)
		assert.Equal(t, 326126.0, *rows[1].Num(colPopulation...))
	})

	t.Run("ragged rows are warnings and blank rows are ignored", func(t *testing.T) {
		table := [][]string{
			{"GEO_ID", "B01003_001E"},
			{"0500000US37183", "1150204"},
			{"0500000US37063"},
			{"", ""},
			{"0500000US37135", "148696"},
		}
		rows, warnings := ParseTable(DatasetPopulation, table)

		assert.Len(t, rows, 2)
		assert.Equal(t, 1, warnings)
	})

	t.Run("sentinel cells keep text but no number", func(t *testing.T) {
		table := [][]string{
			{"GEO_ID", "B01003_001E"},
			{"0500000US37183", "-666666666"},
		}
		rows, _ := ParseTable(DatasetPopulation, table)

		require.Len(t, rows, 1)
		assert.Nil(t, rows[0].Num("B01003_001E"))
		assert.Equal(t, "-666666666", rows[0].Text("B01003_001E"))
	})

	t.Run("empty table", func(t *testing.T) {
		rows, warnings := ParseTable(DatasetHousing, nil)
		assert.Empty(t, rows)
		assert.Equal(t, 0, warnings)
	})
}

func TestRowAliases(t *testing.T) {
	r := Row{
		"DP03_0062E":              {Text: "N"},
		"median_household_income": {Num: ptr(51000), Text: "51000"},
	}
	assert.Equal(t, 51000.0, *r.Num(colMedianIncome...))
	assert.Nil(t, r.Num("missing"))
	assert.Equal(t, "N", r.Text(colMedianIncome...))
}

func TestLoadStatus(t *testing.T) {
	ok := LoadedStatus(DatasetHousing, 3221)
	assert.True(t, ok.Loaded)
	assert.Equal(t, 3221, ok.Rows)
	assert.Empty(t, ok.Error)

	err := &SourceLoadError{Dataset: DatasetFMR, Err: ErrEmptySource}
	failed := FailedStatus(DatasetFMR, err)
	assert.False(t, failed.Loaded)
	assert.Equal(t, 0, failed.Rows)
	assert.Equal(t, "load fmr: source returned an empty body", failed.Error)

	wrapped := fmt.Errorf("build: %w", err)
	assert.True(t, errors.Is(wrapped, ErrEmptySource))
	var sle *SourceLoadError
	require.True(t, errors.As(wrapped, &sle))
	assert.Equal(t, DatasetFMR, sle.Dataset)
}
