// Package dataset persists the analytical layer as a single Parquet file.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/wonny/finrag-metrics/internal/contracts"
)

// Store is one Parquet dataset file
// ⭐ SSOT: 데이터셋 파일 읽기/쓰기는 여기서만
type Store struct {
	Path string
}

// NewStore creates a store for path
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Exists reports whether the dataset file is present
func (s *Store) Exists() bool {
	info, err := os.Stat(s.Path)
	return err == nil && !info.IsDir()
}

// Read decodes every record of the dataset
func (s *Store) Read() ([]contracts.CanonicalMetricRecord, error) {
	pf, err := local.NewLocalFileReader(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", s.Path, err)
	}
	defer pf.Close()

	records, err := readRecords(pf)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", s.Path, err)
	}
	return records, nil
}

// Columns returns the column names stored in the file footer
func (s *Store) Columns() ([]string, error) {
	pf, err := local.NewLocalFileReader(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", s.Path, err)
	}
	defer pf.Close()

	return readColumns(pf)
}

// Bytes returns the raw file content
func (s *Store) Bytes() ([]byte, error) {
	return os.ReadFile(s.Path)
}

// Write replaces the dataset with records. The file is written next to the
// target and renamed over it, so readers never observe a partial file.
func (s *Store) Write(records []contracts.CanonicalMetricRecord) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}
	return s.WriteBytes(data)
}

// WriteBytes atomically replaces the dataset with an already encoded file
func (s *Store) WriteBytes(data []byte) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create dataset dir: %w", err)
	}

	tmp := fmt.Sprintf("%s.tmp-%s", s.Path, uuid.NewString()[:8])
	fw, err := local.NewLocalFileWriter(tmp)
	if err != nil {
		return fmt.Errorf("failed to create temp dataset: %w", err)
	}

	if _, err := fw.Write(data); err != nil {
		fw.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write temp dataset: %w", err)
	}
	if err := fw.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close temp dataset: %w", err)
	}

	if err := os.Rename(tmp, s.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace dataset %s: %w", s.Path, err)
	}
	return nil
}

// Encode serializes records in canonical order
func Encode(records []contracts.CanonicalMetricRecord) ([]byte, error) {
	sorted := append([]contracts.CanonicalMetricRecord(nil), records...)
	contracts.SortRecords(sorted)

	bf := buffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(bf, new(Row), 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range sorted {
		if err := pw.Write(toRow(r)); err != nil {
			return nil, fmt.Errorf("failed to write record %s: %w", r.Identity(), err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return bf.Bytes(), nil
}

// Decode parses a Parquet file held in memory
func Decode(data []byte) ([]contracts.CanonicalMetricRecord, error) {
	return readRecords(buffer.NewBufferFileFromBytes(data))
}

// DecodeColumns returns the column names of an in-memory Parquet file
func DecodeColumns(data []byte) ([]string, error) {
	return readColumns(buffer.NewBufferFileFromBytes(data))
}

func readRecords(pf source.ParquetFile) ([]contracts.CanonicalMetricRecord, error) {
	pr, err := reader.NewParquetReader(pf, new(Row), 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	if n == 0 {
		return []contracts.CanonicalMetricRecord{}, nil
	}

	rows := make([]Row, n)
	if err := pr.Read(&rows); err != nil {
		return nil, err
	}

	records := make([]contracts.CanonicalMetricRecord, len(rows))
	for i, row := range rows {
		records[i] = fromRow(row)
	}
	return records, nil
}

func readColumns(pf source.ParquetFile) ([]string, error) {
	pr, err := reader.NewParquetReader(pf, nil, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet footer: %w", err)
	}
	defer pr.ReadStop()

	sh := pr.SchemaHandler
	if sh == nil || len(sh.SchemaElements) == 0 {
		return nil, errors.New("parquet footer has no schema")
	}

	// footer names are rewritten by the reader; the external names are the column names
	cols := make([]string, 0, len(sh.SchemaElements)-1)
	for i := 1; i < len(sh.SchemaElements); i++ {
		cols = append(cols, sh.GetExName(i))
	}
	return cols, nil
}

// SameColumns reports whether two schemas carry the same column set
func SameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, c := range a {
		set[c] = true
	}
	for _, c := range b {
		if !set[c] {
			return false
		}
	}
	return true
}
