// Package summary строит профиль колонок таблицы наблюдений
// (аналог summary()/str() для табличных данных) на основе gota.
package summary

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/shaiso/surveyqc/internal/domain"
)

// ErrEmptyTable — в таблице нет строк.
var ErrEmptyTable = errors.New("table has no rows")

// numericColumns — колонки, которые описываются статистиками.
var numericColumns = map[string]bool{
	domain.ColCount:     true,
	domain.ColWeight:    true,
	domain.ColLatitude:  true,
	domain.ColLongitude: true,
}

// topN — сколько самых частых значений сохраняется для категориальных колонок.
const topN = 5

// Stats — описательные статистики числовой колонки (без пропусков).
type Stats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// ValueCount — значение категориальной колонки и его частота.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Column — профиль одной колонки.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`

	// Missing — пропуски ("NA", пусто) и, для числовых колонок,
	// значения, которые не разбираются как число.
	Missing  int `json:"missing"`
	Distinct int `json:"distinct"`

	Stats *Stats       `json:"stats,omitempty"`
	Top   []ValueCount `json:"top,omitempty"`
}

// Profile — профиль таблицы.
type Profile struct {
	Rows    int      `json:"rows"`
	Columns []Column `json:"columns"`
}

// Column возвращает профиль колонки по имени.
func (p *Profile) Column(name string) (Column, bool) {
	for _, c := range p.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Summarize строит профиль таблицы. Подходит и для сырых, и для
// очищенных таблиц: значения читаются как текст.
func Summarize(t *domain.RawTable) (*Profile, error) {
	if t.Len() == 0 {
		return nil, ErrEmptyTable
	}

	records := make([][]string, 0, t.Len()+1)
	records = append(records, domain.Columns)
	for _, rec := range t.Records {
		records = append(records, rec.Values())
	}

	types := make(map[string]series.Type, len(domain.Columns))
	for _, name := range domain.Columns {
		if numericColumns[name] {
			types[name] = series.Float
		} else {
			types[name] = series.String
		}
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.WithTypes(types),
		dataframe.NaNValues([]string{domain.MissingMarker, "", "NaN"}),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("load dataframe: %w", df.Err)
	}

	profile := &Profile{Rows: df.Nrow()}
	for _, name := range domain.Columns {
		profile.Columns = append(profile.Columns, describe(df.Col(name)))
	}
	return profile, nil
}

func describe(s series.Series) Column {
	col := Column{Name: s.Name, Type: string(s.Type())}

	nan := s.IsNaN()
	values := s.Records()
	counts := make(map[string]int)
	for i, v := range values {
		if nan[i] {
			col.Missing++
			continue
		}
		counts[v]++
	}
	col.Distinct = len(counts)

	if s.Type() == series.Float {
		col.Stats = numericStats(s.Float(), nan)
		return col
	}

	col.Top = top(counts, topN)
	return col
}

// numericStats считает статистики по значениям без пропусков.
func numericStats(all []float64, nan []bool) *Stats {
	vals := make([]float64, 0, len(all))
	for i, v := range all {
		if !nan[i] && !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return nil
	}

	s := series.Floats(vals)
	return &Stats{
		Mean:   s.Mean(),
		StdDev: s.StdDev(),
		Min:    s.Min(),
		Q25:    s.Quantile(0.25),
		Median: s.Median(),
		Q75:    s.Quantile(0.75),
		Max:    s.Max(),
	}
}

// top возвращает n самых частых значений; при равной частоте — по алфавиту.
func top(counts map[string]int, n int) []ValueCount {
	out := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
