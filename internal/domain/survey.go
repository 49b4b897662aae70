package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Имена колонок таблицы наблюдений (порядок соответствует заголовку CSV).
const (
	ColSiteID       = "site_id"
	ColSamplingDate = "sampling_date"
	ColSpecies      = "species"
	ColGearType     = "gear_type"
	ColCount        = "count"
	ColWeight       = "weight"
	ColLatitude     = "latitude"
	ColLongitude    = "longitude"
)

// Columns — фиксированный набор колонок в порядке вывода.
var Columns = []string{
	ColSiteID,
	ColSamplingDate,
	ColSpecies,
	ColGearType,
	ColCount,
	ColWeight,
	ColLatitude,
	ColLongitude,
}

// DateLayout — формат даты в выходных файлах.
const DateLayout = "2006-01-02"

// MissingMarker — текстовое представление пропущенного значения.
const MissingMarker = "NA"

// RawRecord — строка исходной ("грязной") таблицы.
//
// Все поля хранятся как текст: генератор специально пишет
// в числовые колонки пустые строки и словесные заглушки.
type RawRecord struct {
	SiteID       string `json:"site_id"`
	SamplingDate string `json:"sampling_date"`
	Species      string `json:"species"`
	GearType     string `json:"gear_type"`
	Count        string `json:"count"`
	Weight       string `json:"weight"`
	Latitude     string `json:"latitude"`
	Longitude    string `json:"longitude"`
}

// Values возвращает значения в порядке Columns.
func (r RawRecord) Values() []string {
	return []string{
		r.SiteID,
		r.SamplingDate,
		r.Species,
		r.GearType,
		r.Count,
		r.Weight,
		r.Latitude,
		r.Longitude,
	}
}

// RawRecordFromValues собирает RawRecord из значений в порядке Columns.
func RawRecordFromValues(values []string) (RawRecord, error) {
	if len(values) != len(Columns) {
		return RawRecord{}, fmt.Errorf("%w: expected %d fields, got %d",
			ErrColumnMismatch, len(Columns), len(values))
	}
	return RawRecord{
		SiteID:       values[0],
		SamplingDate: values[1],
		Species:      values[2],
		GearType:     values[3],
		Count:        values[4],
		Weight:       values[5],
		Latitude:     values[6],
		Longitude:    values[7],
	}, nil
}

// Observation — типизированная строка таблицы.
//
// nil-указатель (или пустой Species) — маркер пропущенного значения.
// Raw хранит исходные текстовые значения: шаги очистки читают их,
// а заполняют типизированные поля.
type Observation struct {
	SiteID       string     `json:"site_id"`
	SamplingDate *time.Time `json:"sampling_date"`
	Species      string     `json:"species"`
	GearType     string     `json:"gear_type"`
	Count        *int64     `json:"count"`
	Weight       *float64   `json:"weight"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`

	Raw RawRecord `json:"-"`
}

// DateKey возвращает дату в формате DateLayout или "" для пропуска.
func (o *Observation) DateKey() string {
	if o.SamplingDate == nil {
		return ""
	}
	return o.SamplingDate.Format(DateLayout)
}

// RawTable — исходная таблица, как её пишет генератор.
type RawTable struct {
	Records []RawRecord
}

// Len возвращает количество строк.
func (t *RawTable) Len() int {
	return len(t.Records)
}

// Table — таблица наблюдений, над которой работает проход очистки.
type Table struct {
	Rows []Observation
}

// Len возвращает количество строк.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Int64Ptr и Float64Ptr — хелперы для заполнения nullable-полей.
func Int64Ptr(v int64) *int64 { return &v }

func Float64Ptr(v float64) *float64 { return &v }

// NewTable строит Table из исходной таблицы.
//
// Категориальные поля копируются как есть, координаты разбираются сразу:
// структура таблицы считается корректной, и нечисловая координата
// прерывает проход. Дата, численность, масса и вид остаются
// незаполненными до соответствующих шагов очистки.
func NewTable(raw *RawTable) (*Table, error) {
	rows := make([]Observation, 0, raw.Len())
	for i, rec := range raw.Records {
		lat, err := parseCoordinate(rec.Latitude)
		if err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", i, ColLatitude, err)
		}
		lon, err := parseCoordinate(rec.Longitude)
		if err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", i, ColLongitude, err)
		}
		rows = append(rows, Observation{
			SiteID:    rec.SiteID,
			Species:   rec.Species,
			GearType:  rec.GearType,
			Latitude:  lat,
			Longitude: lon,
			Raw:       rec,
		})
	}
	return &Table{Rows: rows}, nil
}

func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}
	return v, nil
}

// Clone возвращает копию таблицы с новым срезом строк.
// Шаги очистки заменяют значения указателей, но не изменяют то,
// на что они указывают, поэтому поверхностной копии строк достаточно.
func (t *Table) Clone() *Table {
	rows := make([]Observation, len(t.Rows))
	copy(rows, t.Rows)
	return &Table{Rows: rows}
}
