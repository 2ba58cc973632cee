package domain

import (
	"strings"
	"testing"
)

func TestDerivePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"100", 100},
		{"149.99", 149.99},
		{" 42.5 ", 42.5},
		{"1e3", 1000},
		{"-5", 0},
		{"0", 0},
		{"0.00", 0},
		{"abc", 0},
		{"", 0},
		{"$12", 0},
		{"1_000", 1000},
		{"1_000.50", 1000.5},
		{"1__000", 0},
		{"inf", 0},
		{"-Infinity", 0},
		{"nan", 0},
		{"1e400", 0},
		{"0x1p3", 0},
	}
	for _, tt := range tests {
		if got := DerivePrice(tt.raw); got != tt.want {
			t.Errorf("DerivePrice(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestStoredDescription(t *testing.T) {
	long := strings.Repeat("a", 600)
	got := StoredDescription(long)
	if got != long[:500] {
		t.Errorf("expected first 500 chars without marker, got len %d", len(got))
	}

	short := "A sturdy oak table."
	if got := StoredDescription(short); got != short {
		t.Errorf("short description changed: %q", got)
	}

	if got := StoredDescription("   "); got != NotAvailable {
		t.Errorf("blank description: got %q", got)
	}
}

func TestStoredDescription_CountsCharactersNotBytes(t *testing.T) {
	desc := strings.Repeat("é", 501)
	got := StoredDescription(desc)
	if n := len([]rune(got)); n != 500 {
		t.Errorf("expected 500 runes, got %d", n)
	}
}

func TestFallbackDescription(t *testing.T) {
	long := strings.Repeat("b", 250)
	if got := FallbackDescription(long); got != long[:200]+"..." {
		t.Errorf("long fallback: got %q", got)
	}

	exact := strings.Repeat("c", 200)
	if got := FallbackDescription(exact); got != exact {
		t.Errorf("200-char description must be unchanged")
	}

	if got := FallbackDescription(""); got != "" {
		t.Errorf("empty description: got %q", got)
	}
}

func TestFirstImage(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://a/1.jpg, https://a/2.jpg", "https://a/1.jpg"},
		{"  https://a/1.jpg  ", "https://a/1.jpg"},
		{"N/A", NotAvailable},
		{"", NotAvailable},
		{"   ", NotAvailable},
		{", https://a/2.jpg", NotAvailable},
	}
	for _, tt := range tests {
		if got := FirstImage(tt.in); got != tt.want {
			t.Errorf("FirstImage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEmbeddingText(t *testing.T) {
	row := CatalogRow{Title: "Chair", Description: "Soft seat", Brand: "Acme"}
	if got := EmbeddingText(row); got != "Chair Soft seat Acme" {
		t.Errorf("concat: got %q", got)
	}

	row.CombinedText = "chair soft acme combined"
	if got := EmbeddingText(row); got != "chair soft acme combined" {
		t.Errorf("combined: got %q", got)
	}
}

func TestBuildMetadata(t *testing.T) {
	row := CatalogRow{
		ID:          "p1",
		Title:       "Sofa",
		Brand:       "Acme",
		Description: "Three-seat sofa",
		RawPrice:    "-10",
		Images:      "https://img/1.png,https://img/2.png",
	}
	md := BuildMetadata(row)

	if md.Price != 0 {
		t.Errorf("price: got %v", md.Price)
	}
	if md.Image != "https://img/1.png" {
		t.Errorf("image: got %q", md.Image)
	}
	if md.Material != NotAvailable || md.Color != NotAvailable {
		t.Errorf("material/color defaults: got %q/%q", md.Material, md.Color)
	}
}

func TestNewProductFromMatch(t *testing.T) {
	m := Match{ID: "p9", Score: 0.8731, Metadata: Metadata{Title: "Lamp", Price: 12}}
	p := NewProductFromMatch(m)

	if p.ID != "p9" || p.SimilarityScore != 0.8731 || p.Price != 12 {
		t.Errorf("unexpected product: %+v", p)
	}
	if p.Material != NotAvailable || p.Color != NotAvailable {
		t.Errorf("missing material/color must become N/A: %+v", p)
	}
}
