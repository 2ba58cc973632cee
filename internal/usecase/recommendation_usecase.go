package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DRSN-tech/furniture-recs/internal/domain"
	"github.com/DRSN-tech/furniture-recs/pkg/e"
	"github.com/DRSN-tech/furniture-recs/pkg/logger"
)

const statsTimeout = time.Second

// Describer выдаёт описание для каждого товара, выровненное по индексам.
type Describer interface {
	DescribeAll(ctx context.Context, products []domain.Product) []string
}

// RecommendationUseCase реализует семантический поиск товаров.
type RecommendationUseCase struct {
	encoder     Encoder
	vectorIndex VectorIndex
	describer   Describer
	statsRepo   QueryStatsRepository // nil, если Redis не настроен
	logger      logger.Logger
}

func NewRecommendationUC(
	encoder Encoder,
	vectorIndex VectorIndex,
	describer Describer,
	statsRepo QueryStatsRepository,
	logger logger.Logger,
) *RecommendationUseCase {
	return &RecommendationUseCase{
		encoder:     encoder,
		vectorIndex: vectorIndex,
		describer:   describer,
		statsRepo:   statsRepo,
		logger:      logger,
	}
}

// GetRecommendations кодирует запрос и возвращает до topK товаров в порядке, выданном индексом.
// Пустой запрос передаётся кодировщику как есть.
func (r *RecommendationUseCase) GetRecommendations(ctx context.Context, query string, topK int) ([]domain.Product, error) {
	const op = "RecommendationUseCase.GetRecommendations"

	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		return nil, e.Wrap(op, e.ErrInvalidTopK)
	}

	vector, err := r.encoder.Encode(ctx, query)
	if err != nil {
		// кодирование является частью поиска, поэтому наружу уходит как ошибка запроса
		if !errors.Is(err, e.ErrEncode) {
			err = fmt.Errorf("%w: %w", e.ErrEncode, err)
		}
		return nil, e.Wrap(op, fmt.Errorf("%w: %w", e.ErrQuery, err))
	}

	matches, err := r.vectorIndex.Query(ctx, vector, topK)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	products := make([]domain.Product, 0, len(matches))
	for _, m := range matches {
		products = append(products, domain.NewProductFromMatch(m))
	}

	return products, nil
}

// Recommend возвращает рекомендации с AI-описанием для каждого товара.
func (r *RecommendationUseCase) Recommend(ctx context.Context, req *RecommendReq) (*RecommendRes, error) {
	const op = "RecommendationUseCase.Recommend"

	products, err := r.GetRecommendations(ctx, req.Query, req.TopK)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	r.recordQuery(req.Query)

	descriptions := r.describer.DescribeAll(ctx, products)

	res := &RecommendRes{
		Query:    req.Query,
		Products: make([]RecommendedProduct, len(products)),
	}
	for i, p := range products {
		res.Products[i] = RecommendedProduct{
			Product:       p,
			AIDescription: descriptions[i],
		}
	}

	return res, nil
}

// Chat отвечает на сообщение пользователя тремя ближайшими товарами, без генерации описаний.
func (r *RecommendationUseCase) Chat(ctx context.Context, req *ChatReq) (*ChatRes, error) {
	const op = "RecommendationUseCase.Chat"

	products, err := r.GetRecommendations(ctx, req.Message, ChatTopK)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	r.recordQuery(req.Message)

	return &ChatRes{
		Reply:    fmt.Sprintf("Found %d options for '%s':", len(products), req.Message),
		Products: products,
	}, nil
}

// recordQuery учитывает запрос в статистике в фоне; ошибки только логируются.
func (r *RecommendationUseCase) recordQuery(query string) {
	if r.statsRepo == nil || query == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
		defer cancel()

		if err := r.statsRepo.Increment(ctx, query); err != nil {
			r.logger.Warnf("failed to record query stats: %v", err)
		}
	}()
}
