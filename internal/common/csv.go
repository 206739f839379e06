// Package common provides shared CSV functionality for the normalizers and
// report writers.
package common

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"fjacquet/commission-reconcile/internal/logging"
)

// ReadCSVFile reads CSV data into a slice of structs using gocsv.
// TCSVRow is the struct type whose csv tags map to the file's columns.
func ReadCSVFile[TCSVRow any](filePath string, logger logging.Logger) ([]TCSVRow, error) {
	logger.WithField(logging.FieldFile, filePath).Info("Reading CSV file")

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	var rows []TCSVRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV file: %w", err)
	}

	logger.WithField(logging.FieldCount, len(rows)).Info("Successfully read CSV data")
	return rows, nil
}

// ReadCSVHeader returns the column names of a CSV file's first row,
// trimmed of any BOM.
func ReadCSVHeader(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	for i, col := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
	}
	return header, nil
}

// WriteCSVFile marshals a slice of structs to a CSV file using gocsv.
func WriteCSVFile[TCSVRow any](rows []TCSVRow, filePath string, logger logging.Logger) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("error writing CSV file: %w", err)
	}

	logger.WithFields(
		logging.Field{Key: logging.FieldFile, Value: filePath},
		logging.Field{Key: logging.FieldCount, Value: len(rows)},
	).Info("Wrote CSV file")
	return nil
}
