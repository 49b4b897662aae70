package steps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/surveyqc/internal/domain"
	"github.com/shaiso/surveyqc/internal/rules"
)

// Ошибки шагов.
var (
	// ErrStepNotFound — тип шага не найден в реестре.
	ErrStepNotFound = errors.New("step type not found")

	// ErrInvalidConfig — невалидная конфигурация шага.
	ErrInvalidConfig = errors.New("invalid step config")

	// ErrStepCancelled — выполнение шага отменено.
	ErrStepCancelled = errors.New("step execution cancelled")

	// ErrNoTable — шагу не передана таблица.
	ErrNoTable = errors.New("step has no input table")
)

// Step — интерфейс шага очистки.
//
// Каждый шаг — чистое преобразование таблица → таблица:
// входная таблица не изменяется, результат возвращается в Response.
type Step interface {
	// Type возвращает тип шага.
	Type() string

	// Execute выполняет шаг и возвращает новую таблицу и счётчики.
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// Request — входные данные для выполнения шага.
type Request struct {
	// StepID — идентификатор шага в плане.
	StepID string

	// Config — конфигурация шага из плана.
	Config map[string]any

	// Table — таблица, полученная от предыдущего шага.
	Table *domain.Table

	// Rules — словарь видов и правила приведения.
	Rules *rules.Rules

	// Logger — логгер с контекстом прохода и шага.
	Logger *slog.Logger
}

// Response — результат выполнения шага.
type Response struct {
	// Table — преобразованная таблица.
	Table *domain.Table

	// Counters — счётчики исправлений (попадают в отчёт прохода и метрики).
	Counters map[string]int64
}

// NewRequest создаёт новый Request.
func NewRequest(stepID string, config map[string]any, table *domain.Table, r *rules.Rules, logger *slog.Logger) *Request {
	if config == nil {
		config = make(map[string]any)
	}
	if r == nil {
		r = rules.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Request{
		StepID: stepID,
		Config: config,
		Table:  table,
		Rules:  r,
		Logger: logger,
	}
}

// newResponse создаёт Response с пустыми счётчиками.
func newResponse(table *domain.Table) *Response {
	return &Response{
		Table:    table,
		Counters: make(map[string]int64),
	}
}

// prepare проверяет context и входную таблицу и возвращает её копию.
func prepare(ctx context.Context, req *Request) (*domain.Table, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrStepCancelled, ctx.Err())
	default:
	}

	if req.Table == nil {
		return nil, ErrNoTable
	}
	return req.Table.Clone(), nil
}
