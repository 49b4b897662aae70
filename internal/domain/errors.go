package domain

import "errors"

// Ошибки структуры таблицы.
var (
	// ErrColumnMismatch — строка не соответствует фиксированному набору колонок.
	ErrColumnMismatch = errors.New("column mismatch")

	// ErrInvalidCoordinate — координата не является числом.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)
