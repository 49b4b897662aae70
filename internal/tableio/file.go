package tableio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shaiso/surveyqc/internal/domain"
)

// Stdio — путь, означающий stdin для чтения и stdout для записи.
const Stdio = "-"

// WriteFile открывает path на запись и передаёт буферизованный writer в fn.
// Ошибка закрытия файла не теряется.
func WriteFile(path string, fn func(w io.Writer) error) (err error) {
	if path == Stdio {
		bw := bufio.NewWriter(os.Stdout)
		if err := fn(bw); err != nil {
			return err
		}
		return bw.Flush()
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadFile открывает path на чтение и передаёт reader в fn.
func ReadFile(path string, fn func(r io.Reader) error) error {
	if path == Stdio {
		return fn(bufio.NewReader(os.Stdin))
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return fn(bufio.NewReader(f))
}

// LoadRawCSV читает исходную таблицу из файла.
func LoadRawCSV(path string) (*domain.RawTable, error) {
	var t *domain.RawTable
	err := ReadFile(path, func(r io.Reader) error {
		var err error
		t, err = ReadRawCSV(r)
		return err
	})
	return t, err
}

// LoadBinary читает очищенную таблицу из бинарного файла.
func LoadBinary(path string) (*domain.Table, error) {
	var t *domain.Table
	err := ReadFile(path, func(r io.Reader) error {
		var err error
		t, err = ReadBinary(r)
		return err
	})
	return t, err
}

// BinaryExt — расширение бинарных файлов таблиц.
const BinaryExt = ".bin"

// IsBinaryPath сообщает, указывает ли путь на бинарный файл таблицы.
func IsBinaryPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), BinaryExt)
}

// LoadRaw читает таблицу как текст: CSV или бинарный файл (по расширению .bin).
func LoadRaw(path string) (*domain.RawTable, error) {
	if !IsBinaryPath(path) {
		return LoadRawCSV(path)
	}

	var t *domain.RawTable
	err := ReadFile(path, func(r io.Reader) error {
		var err error
		t, _, err = ReadBinaryAsRaw(r)
		return err
	})
	return t, err
}
