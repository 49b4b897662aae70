package engine

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/surveyqc/internal/domain"
)

//go:embed default_plan.yaml
var defaultPlanYAML []byte

// Допустимые типы шагов.
var validStepTypes = map[string]bool{
	"parse_dates":       true,
	"coerce_numeric":    true,
	"normalize_species": true,
	"fix_outliers":      true,
	"dedupe":            true,
}

// DefaultPlan возвращает встроенный план очистки:
// parse_dates → coerce_numeric → normalize_species → fix_outliers → dedupe.
func DefaultPlan() *domain.Plan {
	plan, err := ParsePlan(defaultPlanYAML, ".yaml")
	if err != nil {
		panic(fmt.Sprintf("engine: invalid embedded plan: %v", err))
	}
	return plan
}

// LoadPlan читает план из файла. Формат определяется по расширению.
func LoadPlan(path string) (*domain.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return ParsePlan(data, filepath.Ext(path))
}

// ParsePlan разбирает план из JSON или YAML и валидирует его.
//
// ext — расширение файла (".json", ".yaml", ".yml"). Для пустого
// или неизвестного расширения JSON распознаётся по первому символу.
func ParsePlan(data []byte, ext string) (*domain.Plan, error) {
	var plan domain.Plan

	if isJSON(data, ext) {
		if err := json.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("%w: json: %v", ErrPlanParse, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("%w: yaml: %v", ErrPlanParse, err)
		}
	}

	if err := Validate(&plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func isJSON(data []byte, ext string) bool {
	switch strings.ToLower(ext) {
	case ".json":
		return true
	case ".yaml", ".yml":
		return false
	}
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("{"))
}

// Validate выполняет полную валидацию плана.
//
// Проверяет:
// - Наличие шагов
// - Уникальность ID шагов
// - Корректность типов шагов
func Validate(plan *domain.Plan) error {
	if plan == nil || len(plan.Steps) == 0 {
		return ErrEmptySteps
	}

	stepIDs := make(map[string]bool)
	for i := range plan.Steps {
		if err := ValidateStep(&plan.Steps[i], stepIDs); err != nil {
			return err
		}
	}

	return nil
}

// ValidateStep валидирует один шаг.
// stepIDs — уже встреченные ID шагов (для проверки уникальности).
func ValidateStep(step *domain.StepDef, stepIDs map[string]bool) error {
	if step.ID == "" {
		return NewValidationError("", "id", "step has empty ID", ErrEmptyStepID)
	}

	if stepIDs[step.ID] {
		return NewValidationError(step.ID, "id",
			fmt.Sprintf("duplicate step ID: %s", step.ID), ErrDuplicateStepID)
	}
	stepIDs[step.ID] = true

	if step.Type == "" {
		return NewValidationError(step.ID, "type",
			"step has empty type", ErrUnknownStepType)
	}
	if !validStepTypes[step.Type] {
		return NewValidationError(step.ID, "type",
			fmt.Sprintf("unknown step type: %s", step.Type), ErrUnknownStepType)
	}

	return nil
}

// IsValidStepType проверяет, является ли тип шага допустимым.
func IsValidStepType(stepType string) bool {
	return validStepTypes[stepType]
}

// GetValidStepTypes возвращает отсортированный список допустимых типов шагов.
func GetValidStepTypes() []string {
	types := make([]string, 0, len(validStepTypes))
	for t := range validStepTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
