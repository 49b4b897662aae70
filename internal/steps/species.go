package steps

import (
	"context"
)

const (
	// StepTypeNormalizeSpecies — тип шага нормализации названий видов.
	StepTypeNormalizeSpecies = "normalize_species"

	CounterSpeciesCanonical  = "species_canonical"
	CounterSpeciesCorrected  = "species_corrected"
	CounterSpeciesUnresolved = "species_unresolved"
)

// NormalizeSpeciesStep приводит названия видов к каноническому словарю.
//
// Название приводится через rules.Canonicalize (нижний регистр,
// "_" вместо пробелов), затем исправляется по таблице вариантов.
// Не найденное в таблице название становится пропуском: в очищенной
// таблице встречаются только ключи словаря.
type NormalizeSpeciesStep struct{}

// NewNormalizeSpeciesStep создаёт новый NormalizeSpeciesStep.
func NewNormalizeSpeciesStep() *NormalizeSpeciesStep {
	return &NormalizeSpeciesStep{}
}

// Type возвращает тип шага.
func (s *NormalizeSpeciesStep) Type() string {
	return StepTypeNormalizeSpecies
}

// Execute нормализует названия всех строк.
func (s *NormalizeSpeciesStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	table, err := prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	resp := newResponse(table)
	for i := range table.Rows {
		row := &table.Rows[i]

		key, ok := req.Rules.Resolve(row.Species)
		switch {
		case !ok:
			req.Logger.Warn("unresolved species", "row", i, "value", row.Species)
			row.Species = ""
			resp.Counters[CounterSpeciesUnresolved]++
		case key == row.Species:
			resp.Counters[CounterSpeciesCanonical]++
		default:
			row.Species = key
			resp.Counters[CounterSpeciesCorrected]++
		}
	}

	return resp, nil
}
