// Package mq публикует и читает события surveyqc в RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ и канал в режиме подтверждений
//   - topology.go   — объявление exchange, очередей и привязок
//   - publisher.go  — публикация событий о проходах очистки
//   - consumer.go   — чтение событий (команда watch)
//
// Типы сообщений:
//   - qc.run.completed — проход очистки завершён (SUCCEEDED или FAILED)
//
// Exchanges:
//   - surveyqc.events  — события проходов
//   - surveyqc.dlq     — dead letter queue
package mq
