package domain

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed data/states.yaml
var statesYAML []byte

var (
	fipsRe       = regexp.MustCompile(`^\d{5}$`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// countySuffixes are dropped from normalized county names. " city" is
// deliberately absent: Baltimore city and Baltimore County are distinct.
var countySuffixes = []string{
	" city and borough",
	" census area",
	" municipality",
	" borough",
	" parish",
	" county",
}

// ExtractFIPS returns the 5-digit county FIPS code following the "US" marker
// of a Census geography identifier ("0500000US48439" -> "48439"). A bare
// 5-digit code is accepted as-is. Returns "" when no county code resolves.
func ExtractFIPS(geoID string) string {
	geoID = strings.TrimSpace(geoID)
	if i := strings.Index(geoID, "US"); i >= 0 {
		geoID = geoID[i+2:]
	}
	if !fipsRe.MatchString(geoID) {
		return ""
	}
	return geoID
}

// SplitCountyName splits "Tarrant County, Texas" into its county and state parts.
func SplitCountyName(name string) (county, state string, ok bool) {
	i := strings.LastIndex(name, ",")
	if i < 0 {
		return "", "", false
	}
	county = strings.TrimSpace(name[:i])
	state = strings.TrimSpace(name[i+1:])
	if county == "" || state == "" {
		return "", "", false
	}
	return county, state, true
}

var accentFolder = sync.Pool{
	New: func() any {
		return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	},
}

// NormalizeCountyName produces the name half of the benchmark join key:
// lowercased, accents folded, punctuation dropped, and the county-type suffix removed.
func NormalizeCountyName(name string) string {
	t := accentFolder.Get().(transform.Transformer)
	defer accentFolder.Put(t)
	t.Reset()

	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	s := strings.ToLower(strings.TrimSpace(folded))
	s = strings.NewReplacer(
		".", "",
		"'", "",
		"’", "",
		"&", " and ",
		"-", " ",
	).Replace(s)
	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	for _, suffix := range countySuffixes {
		if strings.HasSuffix(s, suffix) && len(s) > len(suffix) {
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}
	return s
}

// BenchmarkKey is the (normalized county name, state abbreviation) join key.
func BenchmarkKey(county, stateAbbr string) string {
	return NormalizeCountyName(county) + "|" + strings.ToUpper(strings.TrimSpace(stateAbbr))
}

type stateTable struct {
	States map[string]string `yaml:"states"`
}

var loadStates = sync.OnceValues(func() (map[string]string, error) {
	var t stateTable
	if err := yaml.Unmarshal(statesYAML, &t); err != nil {
		return nil, fmt.Errorf("parse state table: %w", err)
	}
	byName := make(map[string]string, len(t.States)*2)
	for name, abbr := range t.States {
		byName[strings.ToLower(name)] = abbr
		byName[strings.ToLower(abbr)] = abbr
	}
	return byName, nil
})

// StateAbbreviation translates a full state name ("North Carolina") to its
// two-letter code ("NC"). Two-letter codes map to themselves.
func StateAbbreviation(state string) (string, bool) {
	table, err := loadStates()
	if err != nil {
		return "", false
	}
	abbr, ok := table[strings.ToLower(strings.TrimSpace(state))]
	return abbr, ok
}
