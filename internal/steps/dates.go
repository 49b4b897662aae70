package steps

import (
	"context"
	"strings"
	"time"

	"github.com/shaiso/surveyqc/internal/domain"
	"github.com/shaiso/surveyqc/internal/rules"
)

const (
	// StepTypeParseDates — тип шага разбора дат.
	StepTypeParseDates = "parse_dates"

	configLayouts = "layouts"

	CounterDatesParsed  = "dates_parsed"
	CounterDatesMissing = "dates_missing"
)

// DefaultDateLayouts — форматы дат, которые встречаются в полевых журналах.
var DefaultDateLayouts = []string{
	domain.DateLayout,
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
}

// ParseDatesStep разбирает sampling_date.
//
// Конфигурация:
//
//	{"layouts": ["2006-01-02", "02-Jan-2006"]}
//
// Нераспознанная дата становится пропуском.
type ParseDatesStep struct{}

// NewParseDatesStep создаёт новый ParseDatesStep.
func NewParseDatesStep() *ParseDatesStep {
	return &ParseDatesStep{}
}

// Type возвращает тип шага.
func (s *ParseDatesStep) Type() string {
	return StepTypeParseDates
}

// Execute разбирает даты всех строк.
func (s *ParseDatesStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	table, err := prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	layouts, err := GetConfigStrings(req.Config, configLayouts)
	if err != nil {
		return nil, err
	}
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}

	resp := newResponse(table)
	for i := range table.Rows {
		row := &table.Rows[i]
		row.SamplingDate = ParseDate(row.Raw.SamplingDate, layouts, req.Rules)
		if row.SamplingDate == nil {
			resp.Counters[CounterDatesMissing]++
			continue
		}
		resp.Counters[CounterDatesParsed]++
	}

	return resp, nil
}

// ParseDate пробует форматы по порядку. Пропуск или нераспознанное
// значение дают nil.
func ParseDate(raw string, layouts []string, r *rules.Rules) *time.Time {
	raw = strings.TrimSpace(raw)
	if r.IsMissingToken(raw) {
		return nil
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
