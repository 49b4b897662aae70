// Package tableio читает и пишет таблицы наблюдений.
//
// Форматы:
//   - csv.go    — текстовый CSV с заголовком domain.Columns, пропуски пишутся как "NA"
//   - binary.go — сериализованная таблица (gob внутри gzip), читается обратно без потерь
//   - file.go   — открытие файлов и "-" для stdin/stdout
package tableio
