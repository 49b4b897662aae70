// Package generator синтезирует "грязные" таблицы рыбоучётных съёмок.
//
// Генератор детерминирован: весь случайный выбор идёт из одного
// источника PCG, инициализированного Config.Seed, поэтому одинаковая
// конфигурация даёт побайтно одинаковый CSV.
//
// Внедряемые дефекты:
//   - count: пустые строки, словесные нули ("none", "zero"), мусор ("unknown", "~5")
//   - weight: пустые строки, мусор ("n/a", "heavy"), значения в граммах вместо кг
//   - species: регистр, синонимы, опечатки, усечения, лишние пробелы
//   - точные дубликаты строк, добавленные в конец и перемешанные
package generator
