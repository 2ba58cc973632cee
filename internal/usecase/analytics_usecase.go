package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/DRSN-tech/furniture-recs/internal/domain"
	"github.com/DRSN-tech/furniture-recs/pkg/e"
	"github.com/DRSN-tech/furniture-recs/pkg/logger"
	"github.com/shopspring/decimal"
)

// AnalyticsUseCase считает сводку по каталогу, загруженному при старте процесса.
type AnalyticsUseCase struct {
	summary   *AnalyticsRes
	statsRepo QueryStatsRepository // nil, если Redis не настроен
	logger    logger.Logger
}

// NewAnalyticsUC считает сводку один раз: каталог после загрузки не меняется.
func NewAnalyticsUC(rows []domain.CatalogRow, statsRepo QueryStatsRepository, logger logger.Logger) *AnalyticsUseCase {
	return &AnalyticsUseCase{
		summary:   summarize(rows),
		statsRepo: statsRepo,
		logger:    logger,
	}
}

func (a *AnalyticsUseCase) Summary(_ context.Context) *AnalyticsRes {
	return a.summary
}

// PopularQueries возвращает самые частые поисковые запросы. Без Redis список пуст.
func (a *AnalyticsUseCase) PopularQueries(ctx context.Context, limit int) ([]QueryCount, error) {
	const op = "AnalyticsUseCase.PopularQueries"

	if limit < 1 || limit > MaxTopK {
		return nil, e.Wrap(op, e.ErrInvalidLimit)
	}

	if a.statsRepo == nil {
		return []QueryCount{}, nil
	}

	top, err := a.statsRepo.Top(ctx, limit)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: %w", e.ErrInternalServerError, err))
	}

	return top, nil
}

func summarize(rows []domain.CatalogRow) *AnalyticsRes {
	var (
		sum   = decimal.Zero
		valid int64
	)

	type brandStat struct {
		count int
		first int
	}
	brands := make(map[string]*brandStat)

	for i, row := range rows {
		if price := domain.DerivePrice(row.RawPrice); price > 0 {
			sum = sum.Add(decimal.NewFromFloat(price))
			valid++
		}

		brand := strings.TrimSpace(row.Brand)
		if brand == "" {
			continue
		}
		if s, ok := brands[brand]; ok {
			s.count++
		} else {
			brands[brand] = &brandStat{count: 1, first: i}
		}
	}

	res := &AnalyticsRes{
		TotalProducts: len(rows),
		TopBrands:     make([]BrandCount, 0, min(len(brands), TopBrandsLimit)),
	}

	if valid > 0 {
		res.AvgPrice, _ = sum.Div(decimal.NewFromInt(valid)).Float64()
	}

	names := make([]string, 0, len(brands))
	for name := range brands {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := brands[names[i]], brands[names[j]]
		if a.count != b.count {
			return a.count > b.count
		}
		return a.first < b.first
	})

	for _, name := range names[:min(len(names), TopBrandsLimit)] {
		res.TopBrands = append(res.TopBrands, BrandCount{Brand: name, Count: brands[name].count})
	}

	return res
}
