package steps

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shaiso/surveyqc/internal/domain"
	"github.com/shaiso/surveyqc/internal/rules"
)

const (
	// StepTypeCoerceNumeric — тип шага приведения count/weight к числам.
	StepTypeCoerceNumeric = "coerce_numeric"

	configFields = "fields"
)

// Outcome — результат приведения одного значения.
type Outcome int

const (
	// OutcomeParsed — значение разобрано как число.
	OutcomeParsed Outcome = iota

	// OutcomeZeroed — словесная заглушка заменена нулём.
	OutcomeZeroed

	// OutcomeBlank — пустое значение или заглушка пропуска.
	OutcomeBlank

	// OutcomeInvalid — текст, который не является допустимым числом.
	OutcomeInvalid
)

// String возвращает имя исхода для счётчиков.
func (o Outcome) String() string {
	switch o {
	case OutcomeParsed:
		return "parsed"
	case OutcomeZeroed:
		return "zeroed"
	case OutcomeBlank:
		return "blank"
	default:
		return "invalid"
	}
}

// CoerceNumericStep приводит count и weight к числам.
//
// Конфигурация:
//
//	{"fields": ["count", "weight"]}
//
// Правила (одинаковы для обоих полей):
//   - словесный ноль ("none", "zero") → 0
//   - пусто или заглушка пропуска ("", "NA") → пропуск
//   - нечисловой текст, отрицательное число → пропуск
//   - count должен быть целым ("3.0" допустимо, "3.5" — пропуск)
//
// Счётчики: {field}_parsed, {field}_zeroed, {field}_blank, {field}_invalid.
type CoerceNumericStep struct{}

// NewCoerceNumericStep создаёт новый CoerceNumericStep.
func NewCoerceNumericStep() *CoerceNumericStep {
	return &CoerceNumericStep{}
}

// Type возвращает тип шага.
func (s *CoerceNumericStep) Type() string {
	return StepTypeCoerceNumeric
}

// Execute приводит числовые поля всех строк.
func (s *CoerceNumericStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	table, err := prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	fields, err := GetConfigStrings(req.Config, configFields)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		fields = []string{domain.ColCount, domain.ColWeight}
	}

	doCount, doWeight := false, false
	for _, f := range fields {
		switch f {
		case domain.ColCount:
			doCount = true
		case domain.ColWeight:
			doWeight = true
		default:
			return nil, fmt.Errorf("%w: %s: field %q is not numeric", ErrInvalidConfig, StepTypeCoerceNumeric, f)
		}
	}

	resp := newResponse(table)
	for i := range table.Rows {
		row := &table.Rows[i]

		if doCount {
			v, outcome := CoerceCount(row.Raw.Count, req.Rules)
			row.Count = v
			resp.Counters[domain.ColCount+"_"+outcome.String()]++
		}
		if doWeight {
			v, outcome := CoerceWeight(row.Raw.Weight, req.Rules)
			row.Weight = v
			resp.Counters[domain.ColWeight+"_"+outcome.String()]++
		}
	}

	return resp, nil
}

// CoerceCount приводит текстовое значение численности.
func CoerceCount(raw string, r *rules.Rules) (*int64, Outcome) {
	v, outcome := coerce(raw, r)
	if v == nil {
		return nil, outcome
	}
	if *v != math.Trunc(*v) || *v >= math.MaxInt64 {
		return nil, OutcomeInvalid
	}
	return domain.Int64Ptr(int64(*v)), outcome
}

// CoerceWeight приводит текстовое значение массы (кг).
func CoerceWeight(raw string, r *rules.Rules) (*float64, Outcome) {
	return coerce(raw, r)
}

func coerce(raw string, r *rules.Rules) (*float64, Outcome) {
	if r.IsZeroToken(raw) {
		return domain.Float64Ptr(0), OutcomeZeroed
	}
	if r.IsMissingToken(raw) {
		return nil, OutcomeBlank
	}

	s := rules.NormalizeToken(raw)
	if !isDecimal(s) {
		return nil, OutcomeInvalid
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil, OutcomeInvalid
	}
	return &v, OutcomeParsed
}

// isDecimal отсекает синтаксис литералов Go, который принимает
// strconv.ParseFloat: разделители "1_0" и шестнадцатеричные "0x10".
func isDecimal(s string) bool {
	if strings.Contains(s, "_") {
		return false
	}
	return !strings.HasPrefix(strings.TrimLeft(s, "+-"), "0x")
}
