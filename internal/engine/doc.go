// Package engine читает и валидирует планы очистки.
//
// Включает:
//   - parser.go         — разбор плана из JSON/YAML и валидация
//   - default_plan.yaml — встроенный план по умолчанию
//
// План — линейный список шагов: порядок в файле и есть порядок
// выполнения, зависимостей между шагами нет.
package engine
