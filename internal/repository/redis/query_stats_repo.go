package redis

import (
	"context"
	"strings"

	"github.com/DRSN-tech/furniture-recs/internal/cfg"
	"github.com/DRSN-tech/furniture-recs/internal/usecase"
	"github.com/DRSN-tech/furniture-recs/pkg/clients"
	"github.com/DRSN-tech/furniture-recs/pkg/e"
	"github.com/DRSN-tech/furniture-recs/pkg/logger"
	"github.com/jimlawless/whereami"
)

// maxTrackedQueries ограничивает размер sorted set: редкие запросы вытесняются.
const maxTrackedQueries = 10000

// QueryStatsRepo считает поисковые запросы в sorted set Redis.
type QueryStatsRepo struct {
	client *clients.RedisClient
	key    string
	logger logger.Logger
}

func NewQueryStatsRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *QueryStatsRepo {
	return &QueryStatsRepo{
		client: client,
		key:    cfg.StatsKey,
		logger: logger,
	}
}

// Increment увеличивает счётчик запроса и отрезает хвост самых редких.
func (r *QueryStatsRepo) Increment(ctx context.Context, query string) error {
	member := normalizeQuery(query)
	if member == "" {
		return nil
	}

	pipeline := r.client.Client.Pipeline()
	pipeline.ZIncrBy(ctx, r.key, 1, member)
	pipeline.ZRemRangeByRank(ctx, r.key, 0, -maxTrackedQueries-1)

	if _, err := pipeline.Exec(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Top возвращает limit самых частых запросов по убыванию счётчика.
func (r *QueryStatsRepo) Top(ctx context.Context, limit int) ([]usecase.QueryCount, error) {
	res, err := r.client.Client.ZRevRangeWithScores(ctx, r.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	out := make([]usecase.QueryCount, 0, len(res))
	for _, z := range res {
		member, ok := z.Member.(string)
		if !ok {
			r.logger.Warnf("unexpected member type %T in %s", z.Member, r.key)
			continue
		}
		out = append(out, usecase.QueryCount{Query: member, Count: int64(z.Score)})
	}

	return out, nil
}

// normalizeQuery приводит запрос к нижнему регистру и схлопывает пробелы.
func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
