package tableio

import "errors"

// Ошибки ввода-вывода таблиц.
var (
	// ErrHeaderMismatch — заголовок CSV не совпадает с фиксированным набором колонок.
	ErrHeaderMismatch = errors.New("csv header does not match survey columns")

	// ErrEmptyInput — во входном файле нет даже заголовка.
	ErrEmptyInput = errors.New("empty input")

	// ErrUnsupportedFormat — неизвестная версия или тип бинарного файла.
	ErrUnsupportedFormat = errors.New("unsupported binary table format")
)
