package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/DRSN-tech/furniture-recs/internal/domain"
	"github.com/DRSN-tech/furniture-recs/pkg/e"
	"github.com/DRSN-tech/furniture-recs/pkg/logger"
)

const (
	defaultMaterial = "quality materials"
	defaultColor    = "stylish"

	promptTemplate = "Write a compelling 2-3 sentence product description for this furniture:\n\n" +
		"Product: %s\nBrand: %s\nMaterial: %s\nColor: %s\n\n" +
		"Be creative, appealing, and highlight features. Keep it under 60 words."
)

// DescriptionUseCase генерирует маркетинговые описания товаров.
type DescriptionUseCase struct {
	generator     TextGenerator
	maxConcurrent int
	logger        logger.Logger
}

func NewDescriptionUC(generator TextGenerator, maxConcurrent int, logger logger.Logger) *DescriptionUseCase {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	return &DescriptionUseCase{
		generator:     generator,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// Prompt собирает запрос к модели.
// Материал и цвет, пустые или равные "N/A" (так каталог помечает отсутствующее поле),
// заменяются на "quality materials" и "stylish": маркер N/A в промпт не попадает.
func (d *DescriptionUseCase) Prompt(product domain.Product) string {
	return fmt.Sprintf(promptTemplate,
		product.Title,
		product.Brand,
		orDefault(product.Material, defaultMaterial),
		orDefault(product.Color, defaultColor),
	)
}

// Generate делает ровно один вызов модели. Пустой ответ тоже считается ошибкой.
func (d *DescriptionUseCase) Generate(ctx context.Context, product domain.Product) (string, error) {
	const op = "DescriptionUseCase.Generate"

	text, err := d.generator.GenerateText(ctx, d.Prompt(product))
	if err != nil {
		return "", e.Wrap(op, fmt.Errorf("%w: %w", e.ErrGeneration, err))
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", e.Wrap(op, fmt.Errorf("%w: empty model output", e.ErrGeneration))
	}

	return text, nil
}

// Describe возвращает сгенерированное описание или детерминированную замену из исходного описания.
func (d *DescriptionUseCase) Describe(ctx context.Context, product domain.Product) string {
	text, err := d.Generate(ctx, product)
	if err != nil {
		d.logger.Warnf("using fallback description for product %s: %v", product.ID, err)
		return domain.FallbackDescription(product.Description)
	}

	return text
}

// DescribeAll описывает каждый товар отдельно; ошибка одного товара не влияет на остальные.
// Результат выровнен по индексам входного среза.
func (d *DescriptionUseCase) DescribeAll(ctx context.Context, products []domain.Product) []string {
	out := make([]string, len(products))

	if d.maxConcurrent == 1 {
		for i, p := range products {
			out[i] = d.Describe(ctx, p)
		}
		return out
	}

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, d.maxConcurrent)
	)

	for i, p := range products {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int, p domain.Product) {
			defer wg.Done()
			defer func() { <-sem }()

			out[i] = d.Describe(ctx, p)
		}(i, p)
	}

	wg.Wait()
	return out
}

func orDefault(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == domain.NotAvailable {
		return def
	}
	return s
}
