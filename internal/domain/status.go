package domain

// RunStatus — статус прохода очистки.
//
// Жизненный цикл:
//
//	RUNNING → SUCCEEDED
//	        ↘ FAILED
type RunStatus string

const (
	// RunStatusRunning — проход выполняется.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusSucceeded — все шаги плана выполнены.
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusFailed — проход прерван ошибкой.
	RunStatusFailed RunStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed:
		return true
	default:
		return false
	}
}
