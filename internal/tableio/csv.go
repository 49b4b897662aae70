package tableio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shaiso/surveyqc/internal/domain"
)

// WriteRawCSV пишет исходную таблицу в CSV.
func WriteRawCSV(w io.Writer, t *domain.RawTable) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(domain.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range t.Records {
		if err := cw.Write(rec.Values()); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadRawCSV читает CSV в исходную таблицу без какой-либо интерпретации значений.
func ReadRawCSV(r io.Reader) (*domain.RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(domain.Columns)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	table := &domain.RawTable{}
	for line := 2; ; line++ {
		values, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		rec, err := domain.RawRecordFromValues(values)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		table.Records = append(table.Records, rec)
	}

	return table, nil
}

func checkHeader(header []string) error {
	if len(header) != len(domain.Columns) {
		return fmt.Errorf("%w: got %d columns, want %d", ErrHeaderMismatch, len(header), len(domain.Columns))
	}
	for i, col := range domain.Columns {
		// BOM, который оставляют табличные редакторы
		name := strings.TrimPrefix(strings.TrimSpace(header[i]), "\ufeff")
		if name != col {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrHeaderMismatch, i, header[i], col)
		}
	}
	return nil
}

// WriteCleanCSV пишет очищенную таблицу. Пропуски записываются как domain.MissingMarker.
func WriteCleanCSV(w io.Writer, t *domain.Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(domain.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range t.Rows {
		if err := cw.Write(ObservationValues(&t.Rows[i])); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ObservationValues форматирует строку в порядке domain.Columns.
func ObservationValues(o *domain.Observation) []string {
	date := domain.MissingMarker
	if o.SamplingDate != nil {
		date = o.SamplingDate.Format(domain.DateLayout)
	}

	species := o.Species
	if species == "" {
		species = domain.MissingMarker
	}

	count := domain.MissingMarker
	if o.Count != nil {
		count = strconv.FormatInt(*o.Count, 10)
	}

	weight := domain.MissingMarker
	if o.Weight != nil {
		weight = strconv.FormatFloat(*o.Weight, 'f', -1, 64)
	}

	return []string{
		o.SiteID,
		date,
		species,
		o.GearType,
		count,
		weight,
		strconv.FormatFloat(o.Latitude, 'f', -1, 64),
		strconv.FormatFloat(o.Longitude, 'f', -1, 64),
	}
}

// CleanRawTable переводит очищенную таблицу в текстовый вид,
// как если бы она была записана в CSV и прочитана обратно.
func CleanRawTable(t *domain.Table) *domain.RawTable {
	records := make([]domain.RawRecord, len(t.Rows))
	for i := range t.Rows {
		// Количество значений всегда совпадает с domain.Columns
		records[i], _ = domain.RawRecordFromValues(ObservationValues(&t.Rows[i]))
	}
	return &domain.RawTable{Records: records}
}
