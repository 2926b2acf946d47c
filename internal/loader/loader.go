// Package loader reads raw tabular export files into in-memory datasets.
// Every per-file failure degrades to an empty dataset for that category;
// the only whole-load failure is an unreadable data directory.
package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"merchantpulse/internal/dataset"
	"merchantpulse/internal/infrastructure"
)

// Category names used for logging and metrics labels.
const (
	CategoryTransactions = "transactions"
	CategorySettlements  = "settlements"
	CategorySupport      = "support"
)

// Files names the fixed, case-sensitive expected filenames per category.
type Files struct {
	Transactions string
	Settlements  string
	Support      string
}

// DefaultFiles returns the expected filenames of the upstream export job.
func DefaultFiles() Files {
	return Files{
		Transactions: "txn_refunds.csv",
		Settlements:  "settlement_data.csv",
		Support:      "Support Data(Sheet1).csv",
	}
}

// RawData is the result of one load pass: one raw dataset per category.
// Categories whose file was absent or undecodable hold an empty dataset and
// are listed in Missing.
type RawData struct {
	Transactions *dataset.Dataset
	Settlements  *dataset.Dataset
	Support      *dataset.Dataset
	Missing      []string
}

// Loader reads the three expected export files from a directory. It performs
// I/O only inside Load; instances hold no state between calls.
type Loader struct {
	dir    string
	files  Files
	logger *slog.Logger
}

// New creates a loader for the given data directory.
func New(dir string, files Files, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{dir: dir, files: files, logger: logger}
}

// Load reads all three categories independently. A failure in one category
// never aborts the others.
func (l *Loader) Load() (*RawData, error) {
	info, err := os.Stat(l.dir)
	if err != nil {
		return nil, fmt.Errorf("data directory %s: %w", l.dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data directory %s: not a directory", l.dir)
	}

	l.logger.Info("loading source files", slog.String("dir", l.dir))

	raw := &RawData{}
	raw.Transactions = l.loadCategory(CategoryTransactions, l.files.Transactions, raw)
	raw.Settlements = l.loadCategory(CategorySettlements, l.files.Settlements, raw)
	raw.Support = l.loadCategory(CategorySupport, l.files.Support, raw)

	infrastructure.LoadsTotal.Inc()
	return raw, nil
}

func (l *Loader) loadCategory(category, filename string, raw *RawData) *dataset.Dataset {
	path := filepath.Join(l.dir, filename)

	ds, err := l.readTable(path)
	if err != nil {
		l.logger.Warn("source file unavailable, using empty dataset",
			slog.String("category", category),
			slog.String("file", filename),
			slog.String("error", err.Error()))
		raw.Missing = append(raw.Missing, category)
		return dataset.New(nil)
	}

	infrastructure.RowsLoaded.WithLabelValues(category).Add(float64(ds.Len()))
	l.logger.Info("source file loaded",
		slog.String("category", category),
		slog.String("file", filename),
		slog.Int("rows", ds.Len()),
		slog.Any("columns", ds.Columns))
	return ds
}

// readTable parses a CSV file, falling back through the candidate encodings,
// then to a sibling .xlsx when the CSV itself is absent.
func (l *Loader) readTable(path string) (*dataset.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if ds, xlsxErr := l.readExcel(excelSibling(path)); xlsxErr == nil {
				return ds, nil
			}
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, err
	}

	var lastErr error
	for _, enc := range candidateEncodings() {
		decoded, err := decodeBytes(data, enc)
		if err != nil {
			lastErr = err
			continue
		}
		ds, err := parseCSV(decoded)
		if err != nil {
			lastErr = err
			continue
		}
		if enc.name != "utf-8" {
			l.logger.Debug("decoded with fallback encoding",
				slog.String("path", path),
				slog.String("encoding", enc.name))
		}
		return ds, nil
	}
	return nil, fmt.Errorf("no candidate encoding parsed %s: %w", filepath.Base(path), lastErr)
}

type candidateEncoding struct {
	name    string
	decoder *encoding.Decoder
}

// candidateEncodings returns the ordered decode attempts: the modern default
// followed by the two legacy 8-bit fallbacks seen in real exports.
func candidateEncodings() []candidateEncoding {
	return []candidateEncoding{
		{name: "utf-8", decoder: nil},
		{name: "latin-1", decoder: charmap.ISO8859_1.NewDecoder()},
		{name: "cp1252", decoder: charmap.Windows1252.NewDecoder()},
	}
}

func decodeBytes(data []byte, enc candidateEncoding) ([]byte, error) {
	if enc.decoder == nil {
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("invalid utf-8 byte sequence")
		}
		return data, nil
	}
	decoded, _, err := transform.Bytes(enc.decoder, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", enc.name, err)
	}
	return decoded, nil
}

// parseCSV reads a header row plus data rows. Ragged rows are tolerated;
// cells beyond the header are ignored and short rows leave columns missing.
func parseCSV(data []byte) (*dataset.Dataset, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return dataset.New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}

	ds := dataset.New(header)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		ds.Rows = append(ds.Rows, rowFromRecord(header, record))
	}
	return ds, nil
}

func rowFromRecord(header, record []string) dataset.Row {
	row := make(dataset.Row, len(header))
	for i, col := range header {
		if col == "" {
			continue
		}
		if i < len(record) {
			row[col] = record[i]
		}
	}
	return row
}

// excelSibling maps an expected CSV path to its .xlsx counterpart.
func excelSibling(csvPath string) string {
	return strings.TrimSuffix(csvPath, filepath.Ext(csvPath)) + ".xlsx"
}

// readExcel reads the first sheet of an Excel workbook, treating the first
// row as the header. Some merchants upload the raw export workbook instead
// of the converted CSV.
func (l *Loader) readExcel(path string) (*dataset.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", filepath.Base(path))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return dataset.New(nil), nil
	}

	header := make([]string, len(rows[0]))
	for i, col := range rows[0] {
		header[i] = strings.TrimSpace(col)
	}
	ds := dataset.New(header)
	for _, record := range rows[1:] {
		ds.Rows = append(ds.Rows, rowFromRecord(header, record))
	}

	l.logger.Info("loaded Excel fallback",
		slog.String("path", path),
		slog.Int("rows", ds.Len()))
	return ds, nil
}
