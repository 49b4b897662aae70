// Package telemetry обеспечивает наблюдаемость прохода очистки.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики шагов и прохода
//
// Логи пишутся в stderr; метрики пакетного прохода сохраняются
// в файл для textfile collector.
package telemetry
