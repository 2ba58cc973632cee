package qdrant

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/furniture-recs/internal/domain"
	"github.com/DRSN-tech/furniture-recs/pkg/e"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

// Ключи payload точки
const (
	fieldProductID   = "product_id"
	fieldTitle       = "title"
	fieldBrand       = "brand"
	fieldPrice       = "price"
	fieldDescription = "description"
	fieldImage       = "image"
	fieldMaterial    = "material"
	fieldColor       = "color"
)

// pointNamespace — пространство имён UUIDv5 для id точек. Менять нельзя: иначе повторная загрузка создаст дубли.
var pointNamespace = uuid.MustParse("6f1c7a52-3f0e-5b8a-9d43-2a7e51c0b9d4")

// IndexRepo хранит записи каталога в коллекции Qdrant.
type IndexRepo struct {
	client     *qdrant.Client
	collection string
}

func NewIndexRepo(client *qdrant.Client, collection string) *IndexRepo {
	return &IndexRepo{
		client:     client,
		collection: collection,
	}
}

func (q *IndexRepo) Exists(ctx context.Context, name string) (bool, error) {
	exists, err := q.client.CollectionExists(ctx, name)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return exists, nil
}

func (q *IndexRepo) Create(ctx context.Context, spec domain.IndexSpec) error {
	distance, err := toDistance(spec.Metric)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: spec.Name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     spec.Dimension,
			Distance: distance,
		}),
	}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Upsert записывает пакет и ждёт его применения, чтобы успешный ответ означал записанные данные.
func (q *IndexRepo) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	points := make([]*qdrant.PointStruct, 0, len(entries))
	for _, entry := range entries {
		points = append(points, toPoint(entry))
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (q *IndexRepo) Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	matches := make([]domain.Match, 0, len(points))
	for _, p := range points {
		matches = append(matches, toMatch(p))
	}

	return matches, nil
}

// PointID — детерминированный id точки для произвольного строкового id товара.
func PointID(productID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(productID)).String()
}

func toPoint(entry domain.IndexEntry) *qdrant.PointStruct {
	return &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(PointID(entry.ID)),
		Vectors: qdrant.NewVectors(entry.Vector...),
		Payload: qdrant.NewValueMap(map[string]any{
			fieldProductID:   entry.ID,
			fieldTitle:       entry.Metadata.Title,
			fieldBrand:       entry.Metadata.Brand,
			fieldPrice:       entry.Metadata.Price,
			fieldDescription: entry.Metadata.Description,
			fieldImage:       entry.Metadata.Image,
			fieldMaterial:    entry.Metadata.Material,
			fieldColor:       entry.Metadata.Color,
		}),
	}
}

func toMatch(p *qdrant.ScoredPoint) domain.Match {
	payload := p.GetPayload()

	id := payload[fieldProductID].GetStringValue()
	if id == "" {
		id = p.GetId().GetUuid()
	}

	return domain.Match{
		ID:    id,
		Score: float64(p.GetScore()),
		Metadata: domain.Metadata{
			Title:       payload[fieldTitle].GetStringValue(),
			Brand:       payload[fieldBrand].GetStringValue(),
			Price:       numberValue(payload[fieldPrice]),
			Description: payload[fieldDescription].GetStringValue(),
			Image:       payload[fieldImage].GetStringValue(),
			Material:    payload[fieldMaterial].GetStringValue(),
			Color:       payload[fieldColor].GetStringValue(),
		},
	}
}

// numberValue читает число независимо от того, сохранил ли его Qdrant как double или integer.
func numberValue(v *qdrant.Value) float64 {
	switch k := v.GetKind().(type) {
	case *qdrant.Value_DoubleValue:
		return k.DoubleValue
	case *qdrant.Value_IntegerValue:
		return float64(k.IntegerValue)
	default:
		return 0
	}
}

func toDistance(metric string) (qdrant.Distance, error) {
	switch metric {
	case "", "cosine":
		return qdrant.Distance_Cosine, nil
	case "dot":
		return qdrant.Distance_Dot, nil
	case "euclid":
		return qdrant.Distance_Euclid, nil
	default:
		return qdrant.Distance_UnknownDistance, fmt.Errorf("unsupported metric %q", metric)
	}
}
