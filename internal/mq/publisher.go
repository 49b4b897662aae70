package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/surveyqc/internal/domain"
)

// ErrNotConfirmed — брокер не подтвердил сообщение.
var ErrNotConfirmed = errors.New("message not confirmed by broker")

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeRunCompleted MessageType = "qc.run.completed"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn     *Connection
	exchange Exchange
	logger   *slog.Logger
}

// NewPublisher создаёт новый Publisher. Пустой exchange — ExchangeEvents.
func NewPublisher(conn *Connection, exchange Exchange, logger *slog.Logger) *Publisher {
	if exchange == "" {
		exchange = ExchangeEvents
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:     conn,
		exchange: exchange,
		logger:   logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// RunCompletedPayload — payload события о завершённом проходе.
type RunCompletedPayload struct {
	RunID      uuid.UUID        `json:"run_id"`
	Plan       string           `json:"plan"`
	Source     string           `json:"source,omitempty"`
	Status     domain.RunStatus `json:"status"`
	InputRows  int              `json:"input_rows"`
	OutputRows int              `json:"output_rows"`
	Counters   map[string]int64 `json:"counters"`
	DurationMs int64            `json:"duration_ms"`
	Error      string           `json:"error,omitempty"`
}

// NewRunCompletedPayload строит payload из записи о проходе.
// Счётчики шагов суммируются по имени.
func NewRunCompletedPayload(run *domain.QCRun) RunCompletedPayload {
	counters := make(map[string]int64)
	for _, s := range run.Steps {
		for name, v := range s.Counters {
			counters[name] += v
		}
	}

	return RunCompletedPayload{
		RunID:      run.ID,
		Plan:       run.Plan,
		Source:     run.Source,
		Status:     run.Status,
		InputRows:  run.InputRows,
		OutputRows: run.OutputRows,
		Counters:   counters,
		DurationMs: run.Duration().Milliseconds(),
		Error:      run.Error,
	}
}

// Publish публикует сообщение и ждёт подтверждения брокера.
func (p *Publisher) Publish(ctx context.Context, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		confirm, err := ch.PublishWithDeferredConfirmWithContext(
			ctx,
			string(p.exchange), // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Type:         string(msg.Type),
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", p.exchange, routingKey, err)
		}

		if confirm != nil {
			acked, err := confirm.WaitContext(ctx)
			if err != nil {
				return fmt.Errorf("wait confirm: %w", err)
			}
			if !acked {
				return fmt.Errorf("%w: %s", ErrNotConfirmed, msg.ID)
			}
		}

		p.logger.Debug("published message",
			"exchange", p.exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishRunCompleted публикует событие о завершённом проходе очистки.
// Потребитель: surveyqc watch и внешние подписчики.
func (p *Publisher) PublishRunCompleted(ctx context.Context, run *domain.QCRun) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeRunCompleted,
		Payload:   NewRunCompletedPayload(run),
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, RoutingKeyRunCompleted, msg)
}
