package domain

// NotAvailable — значение-заглушка для отсутствующих полей метаданных.
const NotAvailable = "N/A"

// Product описывает товар в том виде, в каком его возвращает API.
type Product struct {
	ID              string
	Title           string
	Brand           string
	Price           float64 // неотрицательная, 0 если исходная цена некорректна
	Description     string
	Image           string
	Material        string
	Color           string
	SimilarityScore float64
}

// CatalogRow — типизированная строка каталога. Значения не очищаются:
// вся нормализация выполняется при построении метаданных индекса.
type CatalogRow struct {
	ID           string
	Title        string
	Description  string
	Brand        string
	RawPrice     string
	Images       string
	Material     string
	Color        string
	CombinedText string // пусто, если колонки combined_text нет
}

// NewProductFromMatch собирает товар из результата поиска, копируя score без изменений.
func NewProductFromMatch(m Match) Product {
	return Product{
		ID:              m.ID,
		Title:           m.Metadata.Title,
		Brand:           m.Metadata.Brand,
		Price:           m.Metadata.Price,
		Description:     m.Metadata.Description,
		Image:           m.Metadata.Image,
		Material:        orNotAvailable(m.Metadata.Material),
		Color:           orNotAvailable(m.Metadata.Color),
		SimilarityScore: m.Score,
	}
}

func orNotAvailable(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
