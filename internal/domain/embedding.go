package domain

// Metadata описывает скалярные поля товара, хранящиеся рядом с вектором.
type Metadata struct {
	Title       string
	Brand       string
	Price       float64
	Description string
	Image       string
	Material    string
	Color       string
}

// IndexEntry — запись векторного индекса: (id, вектор, метаданные).
type IndexEntry struct {
	ID       string
	Vector   []float32
	Metadata Metadata
}

// Match — результат поиска по сходству. Для cosine score лежит в [-1, 1], больше — ближе.
type Match struct {
	ID       string
	Score    float64
	Metadata Metadata
}

func NewIndexEntry(id string, vector []float32, metadata Metadata) IndexEntry {
	return IndexEntry{
		ID:       id,
		Vector:   vector,
		Metadata: metadata,
	}
}

// IndexSpec описывает параметры создаваемого индекса.
type IndexSpec struct {
	Name      string
	Dimension uint64
	Metric    string
}
