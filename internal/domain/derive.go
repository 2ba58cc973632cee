package domain

import (
	"math"
	"strconv"
	"strings"
)

const (
	MaxStoredDescription   = 500
	MaxFallbackDescription = 200
	FallbackMarker         = "..."
)

// DerivePrice приводит цену к float; некорректная или неположительная цена становится 0.
// Разделители разрядов "1_000" допускаются. inf и nan считаются некорректными:
// их нельзя отдать в JSON. Шестнадцатеричная запись тоже отвергается.
func DerivePrice(raw string) float64 {
	s := strings.TrimSpace(raw)
	if strings.ContainsAny(s, "xX") {
		return 0
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f <= 0 {
		return 0
	}
	return f
}

// TruncateRunes возвращает первые n символов строки без добавления маркера.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}

	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}

	return s
}

// StoredDescription — описание, которое кладётся в метаданные индекса.
func StoredDescription(desc string) string {
	if strings.TrimSpace(desc) == "" {
		return NotAvailable
	}
	return TruncateRunes(desc, MaxStoredDescription)
}

// FallbackDescription — детерминированная замена сгенерированному описанию.
func FallbackDescription(desc string) string {
	truncated := TruncateRunes(desc, MaxFallbackDescription)
	if len(truncated) < len(desc) {
		return truncated + FallbackMarker
	}
	return desc
}

// FirstImage берёт первый URL из списка через запятую.
func FirstImage(images string) string {
	images = strings.TrimSpace(images)
	if images == "" || images == NotAvailable {
		return NotAvailable
	}

	first := strings.TrimSpace(strings.Split(images, ",")[0])
	if first == "" {
		return NotAvailable
	}
	return first
}

// TextOrNotAvailable возвращает строку как есть либо "N/A" для пустых значений.
func TextOrNotAvailable(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}

// EmbeddingText — текст, по которому строится вектор товара.
func EmbeddingText(row CatalogRow) string {
	if strings.TrimSpace(row.CombinedText) != "" {
		return row.CombinedText
	}
	return row.Title + " " + row.Description + " " + row.Brand
}

// BuildMetadata строит метаданные индекса из строки каталога.
func BuildMetadata(row CatalogRow) Metadata {
	return Metadata{
		Title:       row.Title,
		Brand:       row.Brand,
		Price:       DerivePrice(row.RawPrice),
		Description: StoredDescription(row.Description),
		Image:       FirstImage(row.Images),
		Material:    TextOrNotAvailable(row.Material),
		Color:       TextOrNotAvailable(row.Color),
	}
}

// BuildEntry строит запись индекса из строки каталога и её вектора.
func BuildEntry(row CatalogRow, vector []float32) IndexEntry {
	return NewIndexEntry(row.ID, vector, BuildMetadata(row))
}
