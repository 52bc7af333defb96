package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/vocabsrs/internal/engine"
	"github.com/example/vocabsrs/pkg/models"
)

// ImportConfig defines how a lesson file maps onto vocabulary fields.
type ImportConfig struct {
	FilePath                 string // Path to the Excel or CSV file
	SourceColumn             string // Column with the source-language word
	TargetColumn             string // Column with the translation
	PronunciationColumn      string // Column with the pronunciation
	ExampleColumn            string // Column with an example sentence
	ExampleTranslationColumn string // Column with the example's translation
	CategoryColumn           string // Column with the category tag
	SheetName                string // Name of the sheet to import
	StartRow                 int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SourceColumn:             "A",
		TargetColumn:             "B",
		PronunciationColumn:      "C",
		ExampleColumn:            "D",
		ExampleTranslationColumn: "E",
		CategoryColumn:           "F",
		SheetName:                "Sheet1",
		StartRow:                 2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the parsed entries plus per-row problems. A bad
// row never aborts the import; it is reported here and skipped.
type ImportResult struct {
	TotalProcessed int
	Entries        []engine.LessonEntry
	Errors         []string
}

// ReadLesson parses a lesson file into schedule-ready entries. The
// format is chosen by file extension: .csv is read as CSV, anything
// else as an Excel workbook.
func ReadLesson(config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	if ext == ".csv" {
		return readFromCSV(config)
	}

	return readFromExcel(config)
}

// readFromExcel parses entries from an Excel workbook.
func readFromExcel(config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}

	result := &ImportResult{}
	category := models.CategoryOther

	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}

		if name, ok := sectionHeader(row); ok {
			category = parseCategory(name)
			continue
		}

		result.TotalProcessed++

		entry, err := rowToEntry(row, config, category)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}
		result.Entries = append(result.Entries, entry)
	}

	return result, nil
}

// readFromCSV parses entries from a CSV file. The reader is lenient:
// variable field counts and lazy quotes are accepted because lesson
// files are often hand-edited.
func readFromCSV(config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := &ImportResult{}
	category := models.CategoryOther
	rowNum := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}

		rowNum++

		if rowNum < config.StartRow {
			continue
		}

		// A row with only the first field set (e.g. "verbs,,") is a
		// section header naming the category of the rows below it.
		if name, ok := sectionHeader(row); ok {
			category = parseCategory(name)
			continue
		}

		result.TotalProcessed++

		entry, err := rowToEntry(row, config, category)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		result.Entries = append(result.Entries, entry)
	}

	return result, nil
}

// rowToEntry maps one data row onto a lesson entry using the configured
// column letters.
func rowToEntry(row []string, config ImportConfig, category models.VocabularyCategory) (engine.LessonEntry, error) {
	entry := engine.LessonEntry{Category: category}

	if colIdx := columnToIndex(config.SourceColumn); colIdx >= 0 && colIdx < len(row) {
		entry.Source = cleanWord(row[colIdx])
	}
	if colIdx := columnToIndex(config.TargetColumn); colIdx >= 0 && colIdx < len(row) {
		entry.Target = cleanWord(row[colIdx])
	}
	if config.PronunciationColumn != "" {
		if colIdx := columnToIndex(config.PronunciationColumn); colIdx >= 0 && colIdx < len(row) {
			entry.Pronunciation = strings.TrimSpace(row[colIdx])
		}
	}
	if config.ExampleColumn != "" {
		if colIdx := columnToIndex(config.ExampleColumn); colIdx >= 0 && colIdx < len(row) {
			entry.Example = strings.TrimSpace(row[colIdx])
		}
	}
	if config.ExampleTranslationColumn != "" {
		if colIdx := columnToIndex(config.ExampleTranslationColumn); colIdx >= 0 && colIdx < len(row) {
			entry.ExampleTranslation = strings.TrimSpace(row[colIdx])
		}
	}
	if config.CategoryColumn != "" {
		if colIdx := columnToIndex(config.CategoryColumn); colIdx >= 0 && colIdx < len(row) {
			if tag := strings.TrimSpace(row[colIdx]); tag != "" {
				entry.Category = parseCategory(tag)
			}
		}
	}

	if entry.Source == "" {
		return engine.LessonEntry{}, fmt.Errorf("source word cannot be empty")
	}
	if entry.Target == "" {
		return engine.LessonEntry{}, fmt.Errorf("translation cannot be empty")
	}

	return entry, nil
}

// sectionHeader reports whether a row is a category header: a first
// field with content and every other field empty.
func sectionHeader(row []string) (string, bool) {
	if len(row) < 2 {
		return "", false
	}
	name := strings.Trim(strings.TrimSpace(row[0]), "\"")
	if name == "" {
		return "", false
	}
	for _, field := range row[1:] {
		if strings.TrimSpace(field) != "" {
			return "", false
		}
	}
	return name, true
}

// parseCategory maps a free-form tag onto a known category,
// falling back to "other".
func parseCategory(tag string) models.VocabularyCategory {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, category := range models.Categories() {
		if tag == string(category) || tag == string(category)+"s" {
			return category
		}
	}
	return models.CategoryOther
}

// cleanWord strips trailing parenthesised annotations such as
// "ir (to go)" down to the word itself.
func cleanWord(word string) string {
	if idx := strings.Index(word, "("); idx > 0 {
		return strings.TrimSpace(word[:idx])
	}
	return strings.TrimSpace(word)
}

// columnToIndex converts an Excel column letter to a zero-based index.
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	if column == "" {
		return -1
	}
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
