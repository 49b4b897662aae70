// Package cleaner выполняет план очистки над таблицей наблюдений.
//
// Runner отвечает за:
//   - Валидацию плана
//   - Разбор сырой таблицы в типизированную
//   - Последовательный запуск шагов через реестр
//   - Ведение записи о проходе (QCRun) и метрик
//   - Финализацию прохода (SUCCEEDED/FAILED)
//
// Шаги выполняются строго по порядку плана, без ветвления.
// Ошибка любого шага прерывает весь проход.
package cleaner
