package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DRSN-tech/furniture-recs/internal/domain"
	"github.com/DRSN-tech/furniture-recs/pkg/e"
	"github.com/DRSN-tech/furniture-recs/pkg/logger"
)

type constGenerator struct {
	text string
	err  error
}

func (c constGenerator) GenerateText(context.Context, string) (string, error) {
	return c.text, c.err
}

func TestPrompt(t *testing.T) {
	uc := NewDescriptionUC(constGenerator{}, 1, logger.Nop())

	got := uc.Prompt(domain.Product{Title: "Desk", Brand: "Acme", Material: domain.NotAvailable, Color: ""})
	want := "Write a compelling 2-3 sentence product description for this furniture:\n\n" +
		"Product: Desk\nBrand: Acme\nMaterial: quality materials\nColor: stylish\n\n" +
		"Be creative, appealing, and highlight features. Keep it under 60 words."
	if got != want {
		t.Errorf("prompt mismatch:\n%s", got)
	}

	got = uc.Prompt(domain.Product{Title: "Desk", Brand: "Acme", Material: "  ", Color: domain.NotAvailable})
	if !strings.Contains(got, "Material: quality materials\nColor: stylish") || strings.Contains(got, "N/A") {
		t.Errorf("placeholders must replace missing fields:\n%s", got)
	}

	got = uc.Prompt(domain.Product{Title: "Desk", Brand: "Acme", Material: "Walnut", Color: "Brown"})
	if !strings.Contains(got, "Material: Walnut\nColor: Brown") {
		t.Errorf("material and color must pass through:\n%s", got)
	}
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name    string
		gen     constGenerator
		want    string
		wantErr bool
	}{
		{name: "trimmed output", gen: constGenerator{text: "  A fine desk. \n"}, want: "A fine desk."},
		{name: "model error", gen: constGenerator{err: errors.New("timeout")}, wantErr: true},
		{name: "empty output", gen: constGenerator{text: "   "}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewDescriptionUC(tt.gen, 1, logger.Nop())
			got, err := uc.Generate(context.Background(), domain.Product{Title: "Desk"})

			if tt.wantErr {
				if !errors.Is(err, e.ErrGeneration) {
					t.Fatalf("expected ErrGeneration, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescribe_Fallback(t *testing.T) {
	uc := NewDescriptionUC(constGenerator{err: errors.New("quota")}, 1, logger.Nop())

	long := strings.Repeat("x", 230)
	if got := uc.Describe(context.Background(), domain.Product{Description: long}); got != long[:200]+"..." {
		t.Errorf("long fallback: %q", got)
	}

	if got := uc.Describe(context.Background(), domain.Product{Description: "Short."}); got != "Short." {
		t.Errorf("short fallback: %q", got)
	}
}

func TestDescribeAll_PreservesOrder(t *testing.T) {
	gen := &scriptedGenerator{failFor: map[string]bool{"B": true}}
	uc := NewDescriptionUC(gen, 4, logger.Nop())

	products := []domain.Product{
		{Title: "A", Description: "desc a"},
		{Title: "B", Description: "desc b"},
		{Title: "C", Description: "desc c"},
		{Title: "D", Description: "desc d"},
		{Title: "E", Description: "desc e"},
	}

	got := uc.DescribeAll(context.Background(), products)
	want := []string{"Generated for A.", "desc b", "Generated for C.", "Generated for D.", "Generated for E."}

	if len(got) != len(want) {
		t.Fatalf("got %d descriptions", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if len(gen.prompts) != len(products) {
		t.Errorf("expected %d calls, got %d", len(products), len(gen.prompts))
	}
}
