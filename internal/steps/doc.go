// Package steps содержит шаги прохода очистки.
//
// # Интерфейс Step
//
//	type Step interface {
//	    Type() string
//	    Execute(ctx context.Context, req *Request) (*Response, error)
//	}
//
// Каждый шаг — чистое преобразование таблица → таблица: получает
// копию таблицы предыдущего шага, возвращает новую таблицу и
// счётчики исправлений. Ошибки разбора значений не возвращаются
// как error: значение становится пропуском и учитывается в счётчике.
// Ошибку возвращает только неверная конфигурация шага.
//
// # Типы шагов
//
//   - parse_dates       (dates.go)    — разбор sampling_date
//   - coerce_numeric    (numeric.go)  — count/weight в числа, словесные нули, пропуски
//   - normalize_species (species.go)  — канонизация и исправление по словарю
//   - fix_outliers      (outliers.go) — ручные исправления по позиции и правило диапазона
//   - dedupe            (dedupe.go)   — первая строка в каждой группе (дата, станция)
//
// # Registry
//
//	registry := steps.DefaultRegistry()
//	step, err := registry.Get("dedupe")
package steps
