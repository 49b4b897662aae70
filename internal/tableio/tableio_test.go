package tableio

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/surveyqc/internal/domain"
	"github.com/shaiso/surveyqc/internal/generator"
)

func generated(t *testing.T) *domain.RawTable {
	t.Helper()
	cfg := generator.DefaultConfig()
	cfg.Rows = 60
	return generator.New(cfg, nil).Generate()
}

func cleanTable() *domain.Table {
	date := time.Date(2023, time.May, 2, 0, 0, 0, 0, time.UTC)
	return &domain.Table{Rows: []domain.Observation{
		{
			SiteID:       "S01",
			SamplingDate: &date,
			Species:      "salmo_trutta",
			GearType:     "seine",
			Count:        domain.Int64Ptr(4),
			Weight:       domain.Float64Ptr(1.25),
			Latitude:     44.51234,
			Longitude:    -72.5,
		},
		{
			SiteID:    "S02",
			GearType:  "fyke_net",
			Latitude:  44,
			Longitude: -73,
		},
	}}
}

func TestRawCSV_RoundTrip(t *testing.T) {
	raw := generated(t)

	var buf bytes.Buffer
	require.NoError(t, WriteRawCSV(&buf, raw))

	got, err := ReadRawCSV(&buf)
	require.NoError(t, err)

	if diff := cmp.Diff(raw.Records, got.Records); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRawCSV_KeepsWhitespaceAndBlanks(t *testing.T) {
	raw := &domain.RawTable{Records: []domain.RawRecord{{
		SiteID:       "S01",
		SamplingDate: "2023-05-02",
		Species:      " salmo  trutta ",
		GearType:     "seine",
		Count:        "",
		Weight:       "n/a",
		Latitude:     "44.5",
		Longitude:    "-72.5",
	}}}

	var buf bytes.Buffer
	require.NoError(t, WriteRawCSV(&buf, raw))
	got, err := ReadRawCSV(&buf)
	require.NoError(t, err)

	assert.Equal(t, raw.Records, got.Records)
}

func TestReadRawCSV_Errors(t *testing.T) {
	header := strings.Join(domain.Columns, ",")

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty", "", ErrEmptyInput},
		{"renamed column", strings.Replace(header, "weight", "mass", 1) + "\n", ErrHeaderMismatch},
		{"short row", header + "\nS01,2023-05-02\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRawCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
		})
	}
}

func TestReadRawCSV_BOM(t *testing.T) {
	input := "\ufeff" + strings.Join(domain.Columns, ",") + "\nS01,2023-05-02,salmo_trutta,seine,1,0.5,44.5,-72.5\n"

	got, err := ReadRawCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "S01", got.Records[0].SiteID)
}

func TestWriteCleanCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCleanCSV(&buf, cleanTable()))

	want := strings.Join(domain.Columns, ",") + "\n" +
		"S01,2023-05-02,salmo_trutta,seine,4,1.25,44.51234,-72.5\n" +
		"S02,NA,NA,fyke_net,NA,NA,44,-73\n"
	assert.Equal(t, want, buf.String())
}

func TestBinary_RawRoundTrip(t *testing.T) {
	raw := generated(t)

	var buf bytes.Buffer
	require.NoError(t, WriteRawBinary(&buf, raw))

	got, err := ReadRawBinary(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, raw.Records, got.Records)

	_, err = ReadBinary(bytes.NewReader(buf.Bytes()))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestBinary_CleanRoundTrip(t *testing.T) {
	table := cleanTable()

	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, table))

	got, err := ReadBinary(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, table.Len(), got.Len())

	if diff := cmp.Diff(table.Rows, got.Rows); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	asRaw, kind, err := ReadBinaryAsRaw(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, KindClean, kind)
	assert.Equal(t, CleanRawTable(table).Records, asRaw.Records)
}

func TestBinary_NotGzip(t *testing.T) {
	_, err := ReadBinary(strings.NewReader("site_id,sampling_date\n"))
	assert.Error(t, err)
}

func TestLoadRaw(t *testing.T) {
	dir := t.TempDir()
	raw := generated(t)

	csvPath := filepath.Join(dir, "raw.csv")
	binPath := filepath.Join(dir, "raw.bin")

	require.NoError(t, WriteFile(csvPath, func(w io.Writer) error { return WriteRawCSV(w, raw) }))
	require.NoError(t, WriteFile(binPath, func(w io.Writer) error { return WriteRawBinary(w, raw) }))

	fromCSV, err := LoadRaw(csvPath)
	require.NoError(t, err)
	fromBin, err := LoadRaw(binPath)
	require.NoError(t, err)

	assert.Equal(t, raw.Records, fromCSV.Records)
	assert.Equal(t, raw.Records, fromBin.Records)

	_, err = LoadRaw(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestIsBinaryPath(t *testing.T) {
	assert.True(t, IsBinaryPath("clean.bin"))
	assert.True(t, IsBinaryPath("/tmp/CLEAN.BIN"))
	assert.False(t, IsBinaryPath("clean.csv"))
	assert.False(t, IsBinaryPath(Stdio))
}
