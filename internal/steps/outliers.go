package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/shaiso/surveyqc/internal/domain"
)

const (
	// StepTypeFixOutliers — тип шага исправления выбросов.
	StepTypeFixOutliers = "fix_outliers"

	configFixes       = "fixes"
	configMaxWeightKg = "max_weight_kg"
	configMaxCount    = "max_count"

	CounterManualFixes    = "manual_fixes"
	CounterWeightOutliers = "weight_outliers"
	CounterCountOutliers  = "count_outliers"
)

// FixOutliersStep исправляет неправдоподобные значения.
//
// Два механизма, применяются по порядку:
//
//  1. Ручные исправления по позиции строки (позиция в таблице,
//     пришедшей на вход шагу, до удаления дубликатов):
//
//     {"fixes": [{"row": 17, "field": "weight", "value": "NA"}]}
//
//  2. Правило диапазона: weight > max_weight_kg или count > max_count
//     становится пропуском. Границы по умолчанию берутся из rules.Bounds;
//     значение 0 отключает проверку.
//
//     {"max_weight_kg": 25, "max_count": 500}
type FixOutliersStep struct{}

// NewFixOutliersStep создаёт новый FixOutliersStep.
func NewFixOutliersStep() *FixOutliersStep {
	return &FixOutliersStep{}
}

// Type возвращает тип шага.
func (s *FixOutliersStep) Type() string {
	return StepTypeFixOutliers
}

// manualFix — одно ручное исправление.
type manualFix struct {
	Row   int
	Field string
	Value string
}

// Execute применяет ручные исправления и правило диапазона.
func (s *FixOutliersStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	table, err := prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	fixes, err := s.parseFixes(req.Config, table.Len())
	if err != nil {
		return nil, err
	}

	maxWeight := req.Rules.Bounds.MaxWeightKg
	if v, ok := GetConfigFloat(req.Config, configMaxWeightKg); ok {
		maxWeight = v
	}
	maxCount := req.Rules.Bounds.MaxCount
	if v, ok := GetConfigInt(req.Config, configMaxCount); ok {
		maxCount = v
	}

	resp := newResponse(table)

	for _, fix := range fixes {
		if err := s.applyFix(&table.Rows[fix.Row], fix, req); err != nil {
			return nil, err
		}
		req.Logger.Debug("manual fix applied", "row", fix.Row, "field", fix.Field, "value", fix.Value)
		resp.Counters[CounterManualFixes]++
	}

	for i := range table.Rows {
		row := &table.Rows[i]

		if maxWeight > 0 && row.Weight != nil && *row.Weight > maxWeight {
			req.Logger.Debug("weight outlier", "row", i, "weight", *row.Weight)
			row.Weight = nil
			resp.Counters[CounterWeightOutliers]++
		}
		if maxCount > 0 && row.Count != nil && *row.Count > maxCount {
			req.Logger.Debug("count outlier", "row", i, "count", *row.Count)
			row.Count = nil
			resp.Counters[CounterCountOutliers]++
		}
	}

	return resp, nil
}

// parseFixes разбирает и проверяет ручные исправления.
func (s *FixOutliersStep) parseFixes(config map[string]any, rows int) ([]manualFix, error) {
	raw, err := GetConfigMaps(config, configFixes)
	if err != nil {
		return nil, err
	}

	fixes := make([]manualFix, 0, len(raw))
	for i, m := range raw {
		row, ok := GetConfigInt(m, "row")
		if !ok {
			return nil, fmt.Errorf("%w: %s: fixes[%d]: row must be an integer", ErrInvalidConfig, StepTypeFixOutliers, i)
		}
		if row < 0 || row >= int64(rows) {
			return nil, fmt.Errorf("%w: %s: fixes[%d]: row %d out of range [0, %d)",
				ErrInvalidConfig, StepTypeFixOutliers, i, row, rows)
		}

		fix := manualFix{
			Row:   int(row),
			Field: GetConfigString(m, "field"),
			Value: GetConfigString(m, "value"),
		}
		if fix.Value == "" {
			// Числовое значение в YAML/JSON приходит не строкой
			if v, ok := m["value"]; ok && v != nil {
				fix.Value = fmt.Sprint(v)
			} else {
				fix.Value = domain.MissingMarker
			}
		}
		fixes = append(fixes, fix)
	}

	return fixes, nil
}

// applyFix записывает значение в поле строки. "NA" означает пропуск.
func (s *FixOutliersStep) applyFix(row *domain.Observation, fix manualFix, req *Request) error {
	missing := strings.EqualFold(fix.Value, domain.MissingMarker)

	switch fix.Field {
	case domain.ColWeight:
		if missing {
			row.Weight = nil
			return nil
		}
		v, outcome := CoerceWeight(fix.Value, req.Rules)
		if outcome == OutcomeInvalid {
			return s.badValue(fix)
		}
		row.Weight = v

	case domain.ColCount:
		if missing {
			row.Count = nil
			return nil
		}
		v, outcome := CoerceCount(fix.Value, req.Rules)
		if outcome == OutcomeInvalid {
			return s.badValue(fix)
		}
		row.Count = v

	case domain.ColSpecies:
		if missing {
			row.Species = ""
			return nil
		}
		key, ok := req.Rules.Resolve(fix.Value)
		if !ok {
			return s.badValue(fix)
		}
		row.Species = key

	case domain.ColSamplingDate:
		if missing {
			row.SamplingDate = nil
			return nil
		}
		d := ParseDate(fix.Value, DefaultDateLayouts, req.Rules)
		if d == nil {
			return s.badValue(fix)
		}
		row.SamplingDate = d

	default:
		return fmt.Errorf("%w: %s: field %q cannot be fixed", ErrInvalidConfig, StepTypeFixOutliers, fix.Field)
	}

	return nil
}

func (s *FixOutliersStep) badValue(fix manualFix) error {
	return fmt.Errorf("%w: %s: row %d: invalid %s value %q",
		ErrInvalidConfig, StepTypeFixOutliers, fix.Row, fix.Field, fix.Value)
}
