// Package qa находит дефекты качества данных в таблице наблюдений.
//
// Inspect строит профиль дефектов сырой таблицы до очистки:
// нечисловые значения, виды вне словаря, выбросы, повторные ключи
// (станция, дата) и нераспознанные даты.
//
// CheckCleaned проверяет, что очищенная таблица удовлетворяет
// инвариантам: числа или пропуск, канонические виды, уникальные ключи.
package qa
