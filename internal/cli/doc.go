// Package cli реализует инструмент командной строки surveyqc.
//
// # Обзор
//
// CLI объединяет генератор, проход очистки и вспомогательные
// инструменты QA. Команды:
//   - generate — синтетическая "грязная" таблица
//   - clean    — проход очистки, отчёт, загрузка в БД, событие в RabbitMQ
//   - inspect  — профиль дефектов или проверка инвариантов очищенной таблицы
//   - summary  — профиль колонок
//   - load     — загрузка очищенной бинарной таблицы в Postgres
//   - runs     — история проходов из Postgres
//   - watch    — чтение событий qc.run.completed
//
// # Конфигурация
//
// Каждая команда получает App через AppFunc уже после разбора флагов:
// конфигурация собирается viper (значения по умолчанию, файл --config,
// SURVEYQC_*, флаги), логгер настраивается по log.level / log.format.
//
// # Вывод
//
// Output поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения и логи — в stderr.
// Это позволяет использовать pipe: surveyqc generate | surveyqc clean --in -
package cli
