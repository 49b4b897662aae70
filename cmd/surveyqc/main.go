// surveyqc — генератор синтетических таблиц рыбных учётов и проход
// QA/QC-очистки над ними.
//
// Использование:
//
//	surveyqc [--config FILE] [--json] <command> [flags]
//
// Команды:
//
//	generate  Сгенерировать таблицу с дефектами
//	clean     Прогнать план очистки
//	inspect   Отчёт о дефектах / проверка инвариантов
//	summary   Профиль колонок
//	load      Загрузить очищенную таблицу в Postgres
//	runs      История проходов
//	watch     События qc.run.completed из RabbitMQ
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/surveyqc/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
