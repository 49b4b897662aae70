package summary

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/surveyqc/internal/domain"
)

func rec(site, species, count, weight string) domain.RawRecord {
	return domain.RawRecord{
		SiteID:       site,
		SamplingDate: "2023-05-02",
		Species:      species,
		GearType:     "seine",
		Count:        count,
		Weight:       weight,
		Latitude:     "44.5",
		Longitude:    "-72.5",
	}
}

func TestSummarize(t *testing.T) {
	table := &domain.RawTable{Records: []domain.RawRecord{
		rec("S01", "salmo_trutta", "2", "1.0"),
		rec("S01", "salmo_trutta", "4", "NA"),
		rec("S02", "cottus_cognatus", "NA", "3.0"),
		rec("S03", "NA", "6", "none"),
	}}

	p, err := Summarize(table)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Rows)
	require.Len(t, p.Columns, len(domain.Columns))

	count, ok := p.Column(domain.ColCount)
	require.True(t, ok)
	assert.Equal(t, 1, count.Missing)
	assert.Equal(t, 3, count.Distinct)
	require.NotNil(t, count.Stats)
	assert.InDelta(t, 4.0, count.Stats.Mean, 1e-9)
	assert.InDelta(t, 2.0, count.Stats.Min, 1e-9)
	assert.InDelta(t, 6.0, count.Stats.Max, 1e-9)

	weight, ok := p.Column(domain.ColWeight)
	require.True(t, ok)
	assert.Equal(t, 2, weight.Missing, "NA and non-numeric text")
	assert.InDelta(t, 2.0, weight.Stats.Mean, 1e-9)

	species, ok := p.Column(domain.ColSpecies)
	require.True(t, ok)
	assert.Equal(t, 1, species.Missing)
	assert.Equal(t, 2, species.Distinct)
	assert.Nil(t, species.Stats)
	assert.Equal(t, []ValueCount{
		{Value: "salmo_trutta", Count: 2},
		{Value: "cottus_cognatus", Count: 1},
	}, species.Top)

	site, _ := p.Column(domain.ColSiteID)
	assert.Equal(t, ValueCount{Value: "S01", Count: 2}, site.Top[0])
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(&domain.RawTable{})
	assert.True(t, errors.Is(err, ErrEmptyTable))
}

func TestTop(t *testing.T) {
	got := top(map[string]int{"b": 2, "a": 2, "c": 5, "d": 1}, 3)
	assert.Equal(t, []ValueCount{{"c", 5}, {"a", 2}, {"b", 2}}, got)
}
