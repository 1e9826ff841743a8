// Package export writes stored transactions out as CSV for use in
// spreadsheets or other finance tools.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"mhagen/fintrack/internal/logging"
	"mhagen/fintrack/internal/models"
)

// Options controls CSV output shape.
type Options struct {
	Delimiter      rune
	IncludeHeaders bool
}

// DefaultOptions matches the most common consumer: comma-separated with a
// header row.
func DefaultOptions() Options {
	return Options{Delimiter: ',', IncludeHeaders: true}
}

// WriteCSV renders transactions as CSV onto w.
func WriteCSV(w io.Writer, txns []models.Transaction, opts Options) error {
	writer := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		writer.Comma = opts.Delimiter
	}
	safe := gocsv.NewSafeCSVWriter(writer)

	var err error
	if opts.IncludeHeaders {
		err = gocsv.MarshalCSV(&txns, safe)
	} else {
		err = gocsv.MarshalCSVWithoutHeaders(&txns, safe)
	}
	if err != nil {
		return fmt.Errorf("marshal transactions to csv: %w", err)
	}
	return nil
}

// WriteCSVFile renders transactions as CSV into a file at path.
func WriteCSVFile(path string, txns []models.Transaction, opts Options, log logging.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteCSV(f, txns, opts); err != nil {
		return err
	}

	log.Info("transactions exported",
		logging.Field{Key: "path", Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(txns)})
	return nil
}
