package generator

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/surveyqc/internal/domain"
	"github.com/shaiso/surveyqc/internal/rules"
)

func writeCSV(t *testing.T, table *domain.RawTable) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(domain.Columns))
	for _, rec := range table.Records {
		require.NoError(t, w.Write(rec.Values()))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return buf.Bytes()
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := DefaultConfig()

	first := writeCSV(t, New(cfg, nil).Generate())
	second := writeCSV(t, New(cfg, nil).Generate())
	assert.Equal(t, first, second, "same seed must give byte-identical output")

	g := New(cfg, nil)
	assert.Equal(t, g.Generate(), g.Generate(), "repeated calls must not share rng state")

	cfg.Seed = 43
	other := writeCSV(t, New(cfg, nil).Generate())
	assert.NotEqual(t, first, other)
}

func TestGenerate_Shape(t *testing.T) {
	tests := []struct {
		name    string
		rows    int
		dupRate float64
		want    int
	}{
		{"defaults", 200, 0.05, 210},
		{"no duplicates", 50, 0, 50},
		{"rounded", 30, 0.05, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Rows = tt.rows
			cfg.DuplicateRate = tt.dupRate

			table := New(cfg, nil).Generate()
			assert.Equal(t, tt.want, table.Len())

			// Уникальные пары (станция, дата) — ровно базовые строки
			pairs := make(map[string]bool)
			for _, rec := range table.Records {
				pairs[rec.SiteID+"|"+rec.SamplingDate] = true
			}
			assert.Len(t, pairs, tt.rows)
		})
	}
}

func TestGenerate_DuplicatesAreVerbatim(t *testing.T) {
	table := New(DefaultConfig(), nil).Generate()

	byKey := make(map[string][]domain.RawRecord)
	for _, rec := range table.Records {
		key := rec.SiteID + "|" + rec.SamplingDate
		byKey[key] = append(byKey[key], rec)
	}

	dups := 0
	for _, recs := range byKey {
		for _, rec := range recs[1:] {
			assert.Equal(t, recs[0], rec)
			dups++
		}
	}
	assert.Equal(t, 10, dups)
}

func TestGenerate_Values(t *testing.T) {
	r := rules.Default()
	cfg := DefaultConfig()
	cfg.Rows = 500

	table := New(cfg, r).Generate()
	end := cfg.StartDate.AddDate(0, 0, cfg.SeasonDays)

	var blanks, textual, misspelled int
	for _, rec := range table.Records {
		_, ok := r.Resolve(rec.Species)
		assert.True(t, ok, "species %q must be resolvable", rec.Species)
		if rec.Species != "" && !r.IsCanonical(rules.Canonicalize(rec.Species)) {
			misspelled++
		}

		d, err := time.Parse(domain.DateLayout, rec.SamplingDate)
		require.NoError(t, err)
		assert.False(t, d.Before(cfg.StartDate) || !d.Before(end), "date %s outside season", rec.SamplingDate)

		_, err = strconv.ParseFloat(rec.Latitude, 64)
		assert.NoError(t, err)

		if rec.Count == "" {
			blanks++
		} else if _, err := strconv.ParseInt(rec.Count, 10, 64); err != nil {
			textual++
		}
	}

	assert.Positive(t, blanks)
	assert.Positive(t, textual)
	assert.Positive(t, misspelled)
}

func TestGenerate_NoDefects(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BlankRate = 0
	cfg.ZeroTokenRate = 0
	cfg.JunkRate = 0
	cfg.OutlierRate = 0
	cfg.MisspellRate = 0
	cfg.DuplicateRate = 0

	r := rules.Default()
	for _, rec := range New(cfg, r).Generate().Records {
		n, err := strconv.ParseInt(rec.Count, 10, 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(0))

		w, err := strconv.ParseFloat(rec.Weight, 64)
		require.NoError(t, err)
		assert.Less(t, w, r.Bounds.MaxWeightKg)
	}
}

func TestNew_WidensSeason(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sites = 2
	cfg.SeasonDays = 10
	cfg.Rows = 50

	g := New(cfg, nil)
	assert.Equal(t, 25, g.Config().SeasonDays)
	assert.Equal(t, 50+3, g.Generate().Len())
}

func TestNew_ZeroConfigUsesDefaults(t *testing.T) {
	g := New(Config{}, nil)
	got := g.Config()

	assert.Equal(t, 200, got.Rows)
	assert.Equal(t, 8, got.Sites)
	assert.Equal(t, 153, got.SeasonDays)
	assert.False(t, got.StartDate.IsZero())
}
