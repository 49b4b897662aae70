package cleaner

import "errors"

// Ошибки прохода очистки.
var (
	// ErrInvalidPlan — план не прошёл валидацию.
	ErrInvalidPlan = errors.New("invalid cleaning plan")

	// ErrNoInput — не передана входная таблица.
	ErrNoInput = errors.New("no input table")

	// ErrStepFailed — шаг завершился с ошибкой, проход прерван.
	ErrStepFailed = errors.New("cleaning step failed")
)
