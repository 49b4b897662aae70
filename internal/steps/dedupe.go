package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/shaiso/surveyqc/internal/domain"
)

const (
	// StepTypeDedupe — тип шага удаления дубликатов.
	StepTypeDedupe = "dedupe"

	configKeys = "keys"

	CounterDuplicatesRemoved = "duplicates_removed"
	CounterGroups            = "groups"
)

// DedupeStep оставляет первую строку в каждой группе ключей.
//
// Конфигурация:
//
//	{"keys": ["sampling_date", "site_id"]}
//
// Порядок оставшихся строк сохраняется. Пропущенная дата —
// тоже значение ключа: строки станции без даты образуют одну группу.
type DedupeStep struct{}

// NewDedupeStep создаёт новый DedupeStep.
func NewDedupeStep() *DedupeStep {
	return &DedupeStep{}
}

// Type возвращает тип шага.
func (s *DedupeStep) Type() string {
	return StepTypeDedupe
}

// Execute удаляет повторы.
func (s *DedupeStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	table, err := prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	keys, err := GetConfigStrings(req.Config, configKeys)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		keys = []string{domain.ColSamplingDate, domain.ColSiteID}
	}
	for _, k := range keys {
		if _, ok := keyFuncs[k]; !ok {
			return nil, fmt.Errorf("%w: %s: unsupported key %q", ErrInvalidConfig, StepTypeDedupe, k)
		}
	}

	resp := newResponse(table)
	seen := make(map[string]struct{}, table.Len())
	kept := table.Rows[:0]

	for i := range table.Rows {
		key := GroupKey(&table.Rows[i], keys)
		if _, dup := seen[key]; dup {
			resp.Counters[CounterDuplicatesRemoved]++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, table.Rows[i])
	}

	table.Rows = kept
	resp.Counters[CounterGroups] = int64(len(seen))

	return resp, nil
}

// keyFuncs — поля, по которым можно группировать.
var keyFuncs = map[string]func(*domain.Observation) string{
	domain.ColSiteID:       func(o *domain.Observation) string { return o.SiteID },
	domain.ColSamplingDate: func(o *domain.Observation) string { return o.DateKey() },
	domain.ColSpecies:      func(o *domain.Observation) string { return o.Species },
	domain.ColGearType:     func(o *domain.Observation) string { return o.GearType },
}

// GroupKey строит ключ группы из значений полей.
func GroupKey(o *domain.Observation, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = keyFuncs[k](o)
	}
	return strings.Join(parts, "\x1f")
}
