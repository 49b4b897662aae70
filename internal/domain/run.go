package domain

import (
	"time"

	"github.com/google/uuid"
)

// QCRun — запись об одном проходе очистки.
//
// Создаётся в начале прохода, накапливает счётчики шагов и
// сохраняется в qc_runs / публикуется в RabbitMQ после завершения.
type QCRun struct {
	// ID — уникальный идентификатор прохода.
	ID uuid.UUID `json:"id"`

	// Plan — имя выполненного плана.
	Plan string `json:"plan"`

	// Source — путь к входному файлу.
	Source string `json:"source,omitempty"`

	// Status — текущий статус.
	Status RunStatus `json:"status"`

	// InputRows / OutputRows — количество строк до и после очистки.
	InputRows  int `json:"input_rows"`
	OutputRows int `json:"output_rows"`

	// Steps — результаты шагов в порядке выполнения.
	Steps []StepResult `json:"steps"`

	// StartedAt / FinishedAt — границы выполнения.
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки, если проход завершился с FAILED.
	Error string `json:"error,omitempty"`
}

// StepResult — счётчики одного шага.
type StepResult struct {
	StepID   string           `json:"step_id"`
	Type     string           `json:"type"`
	Counters map[string]int64 `json:"counters"`
	Duration time.Duration    `json:"duration_ns"`
}

// NewQCRun создаёт проход в статусе RUNNING.
func NewQCRun(plan, source string) *QCRun {
	return &QCRun{
		ID:        uuid.New(),
		Plan:      plan,
		Source:    source,
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если проход ещё не завершён.
func (r *QCRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Counter суммирует счётчик name по всем шагам.
func (r *QCRun) Counter(name string) int64 {
	var total int64
	for _, s := range r.Steps {
		total += s.Counters[name]
	}
	return total
}

// MarkSucceeded переводит проход в статус SUCCEEDED.
func (r *QCRun) MarkSucceeded(outputRows int) {
	now := time.Now()
	r.Status = RunStatusSucceeded
	r.OutputRows = outputRows
	r.FinishedAt = &now
}

// MarkFailed переводит проход в статус FAILED с ошибкой.
func (r *QCRun) MarkFailed(err string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.FinishedAt = &now
	r.Error = err
}
