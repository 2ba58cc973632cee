package catalog

import (
	"fmt"
	"strings"

	"github.com/DRSN-tech/furniture-recs/internal/domain"
)

type column int

const (
	colID column = iota
	colTitle
	colDescription
	colBrand
	colPrice
	colImages
	colMaterial
	colColor
	colCombinedText
	numColumns
)

// columnNames — допустимые имена колонок; первое имя каноническое.
var columnNames = [numColumns][]string{
	colID:           {"id", "uniq_id"},
	colTitle:        {"title"},
	colDescription:  {"description"},
	colBrand:        {"brand"},
	colPrice:        {"price", "price_numeric"},
	colImages:       {"images"},
	colMaterial:     {"material"},
	colColor:        {"color"},
	colCombinedText: {"combined_text"},
}

var requiredColumns = []column{colID, colTitle, colDescription, colBrand, colPrice}

// header хранит индекс каждой колонки в файле, -1 для отсутствующих.
type header [numColumns]int

func parseHeader(names []string) (header, []string) {
	var h header
	for i := range h {
		h[i] = -1
	}

	for idx, raw := range names {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
		for col, aliases := range columnNames {
			for _, alias := range aliases {
				if name == alias && h[col] == -1 {
					h[col] = idx
				}
			}
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if h[col] == -1 {
			missing = append(missing, strings.Join(columnNames[col], "|"))
		}
	}
	if len(missing) > 0 {
		return h, []string{"missing required columns: " + strings.Join(missing, ", ")}
	}

	return h, nil
}

func (h header) value(record []string, col column) string {
	if h[col] < 0 {
		return ""
	}
	return record[h[col]]
}

// parseRecords превращает записи файла в строки каталога. Первая запись считается заголовком.
func parseRecords(records [][]string) ([]domain.CatalogRow, []string) {
	if len(records) == 0 {
		return nil, []string{"file is empty, header row expected"}
	}

	h, problems := parseHeader(records[0])
	if len(problems) > 0 {
		return nil, problems
	}

	width := len(records[0])
	rows := make([]domain.CatalogRow, 0, len(records)-1)
	seen := make(map[string]int, len(records)-1)

	for i, record := range records[1:] {
		line := i + 2
		if blank(record) {
			continue
		}
		if len(record) != width {
			problems = append(problems, fmt.Sprintf("row %d: expected %d fields, got %d", line, width, len(record)))
			continue
		}

		row := domain.CatalogRow{
			ID:           strings.TrimSpace(h.value(record, colID)),
			Title:        h.value(record, colTitle),
			Description:  h.value(record, colDescription),
			Brand:        h.value(record, colBrand),
			RawPrice:     h.value(record, colPrice),
			Images:       h.value(record, colImages),
			Material:     h.value(record, colMaterial),
			Color:        h.value(record, colColor),
			CombinedText: h.value(record, colCombinedText),
		}

		if row.ID == "" {
			problems = append(problems, fmt.Sprintf("row %d: empty id", line))
			continue
		}
		if first, ok := seen[row.ID]; ok {
			problems = append(problems, fmt.Sprintf("row %d: duplicate id %q (first seen in row %d)", line, row.ID, first))
			continue
		}
		seen[row.ID] = line

		rows = append(rows, row)
	}

	return rows, problems
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
