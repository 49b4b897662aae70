package domain

// Plan — план очистки: упорядоченный список шагов.
//
// План — это "рецепт" прохода. Шаги выполняются строго сверху вниз,
// каждый получает таблицу, изменённую предыдущим шагом.
type Plan struct {
	// Name — имя плана (например, "default").
	Name string `json:"name" yaml:"name"`

	// Description — назначение плана.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Steps — шаги в порядке выполнения.
	Steps []StepDef `json:"steps" yaml:"steps"`
}

// StepDef — определение шага в плане.
type StepDef struct {
	// ID — уникальный идентификатор шага в рамках плана.
	ID string `json:"id" yaml:"id"`

	// Type — тип шага: "parse_dates", "coerce_numeric",
	// "normalize_species", "fix_outliers", "dedupe".
	Type string `json:"type" yaml:"type"`

	// Config — конфигурация шага (зависит от типа).
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}
