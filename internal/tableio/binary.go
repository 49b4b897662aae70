package tableio

import (
	"encoding/gob"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/shaiso/surveyqc/internal/domain"
)

const binaryVersion = 1

// Kind — тип таблицы в бинарном файле.
type Kind string

const (
	KindRaw   Kind = "raw"
	KindClean Kind = "clean"
)

// binaryFile — содержимое бинарного файла.
type binaryFile struct {
	Version int
	Kind    Kind
	Columns []string
	Raw     []domain.RawRecord
	Rows    []binaryRow
}

// binaryRow — типизированная строка без исходных текстовых значений.
type binaryRow struct {
	SiteID       string
	SamplingDate *time.Time
	Species      string
	GearType     string
	Count        *int64
	Weight       *float64
	Latitude     float64
	Longitude    float64
}

// WriteRawBinary сериализует исходную таблицу.
func WriteRawBinary(w io.Writer, t *domain.RawTable) error {
	return encode(w, &binaryFile{
		Version: binaryVersion,
		Kind:    KindRaw,
		Columns: domain.Columns,
		Raw:     t.Records,
	})
}

// WriteBinary сериализует очищенную таблицу.
func WriteBinary(w io.Writer, t *domain.Table) error {
	rows := make([]binaryRow, len(t.Rows))
	for i, o := range t.Rows {
		rows[i] = binaryRow{
			SiteID:       o.SiteID,
			SamplingDate: o.SamplingDate,
			Species:      o.Species,
			GearType:     o.GearType,
			Count:        o.Count,
			Weight:       o.Weight,
			Latitude:     o.Latitude,
			Longitude:    o.Longitude,
		}
	}

	return encode(w, &binaryFile{
		Version: binaryVersion,
		Kind:    KindClean,
		Columns: domain.Columns,
		Rows:    rows,
	})
}

func encode(w io.Writer, f *binaryFile) error {
	zw := gzip.NewWriter(w)

	if err := gob.NewEncoder(zw).Encode(f); err != nil {
		zw.Close()
		return fmt.Errorf("encode table: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close gzip: %w", err)
	}
	return nil
}

// decode читает файл; пустой want принимает любой Kind.
func decode(r io.Reader, want Kind) (*binaryFile, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer zr.Close()

	var f binaryFile
	if err := gob.NewDecoder(zr).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode table: %w", err)
	}

	known := f.Kind == KindRaw || f.Kind == KindClean
	if f.Version != binaryVersion || !known || (want != "" && f.Kind != want) {
		return nil, fmt.Errorf("%w: version %d, kind %q", ErrUnsupportedFormat, f.Version, f.Kind)
	}
	if err := checkHeader(f.Columns); err != nil {
		return nil, err
	}

	return &f, nil
}

// ReadRawBinary читает исходную таблицу.
func ReadRawBinary(r io.Reader) (*domain.RawTable, error) {
	f, err := decode(r, KindRaw)
	if err != nil {
		return nil, err
	}
	return &domain.RawTable{Records: f.Raw}, nil
}

// ReadBinary читает очищенную таблицу.
func ReadBinary(r io.Reader) (*domain.Table, error) {
	f, err := decode(r, KindClean)
	if err != nil {
		return nil, err
	}
	return f.table(), nil
}

// ReadBinaryAsRaw читает бинарный файл любого типа как текстовую таблицу.
// Очищенные строки форматируются так же, как в CSV.
func ReadBinaryAsRaw(r io.Reader) (*domain.RawTable, Kind, error) {
	f, err := decode(r, "")
	if err != nil {
		return nil, "", err
	}
	if f.Kind == KindRaw {
		return &domain.RawTable{Records: f.Raw}, f.Kind, nil
	}
	return CleanRawTable(f.table()), f.Kind, nil
}

func (f *binaryFile) table() *domain.Table {
	rows := make([]domain.Observation, len(f.Rows))
	for i, b := range f.Rows {
		rows[i] = domain.Observation{
			SiteID:       b.SiteID,
			SamplingDate: b.SamplingDate,
			Species:      b.Species,
			GearType:     b.GearType,
			Count:        b.Count,
			Weight:       b.Weight,
			Latitude:     b.Latitude,
			Longitude:    b.Longitude,
		}
	}
	return &domain.Table{Rows: rows}
}
