package http

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/DRSN-tech/furniture-recs/internal/domain"
	"github.com/DRSN-tech/furniture-recs/internal/usecase"
)

type StatusResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

type ProductResponse struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Brand           string  `json:"brand"`
	Price           float64 `json:"price"`
	Description     string  `json:"description"`
	Image           string  `json:"image"`
	Material        string  `json:"material"`
	Color           string  `json:"color"`
	SimilarityScore float64 `json:"similarity_score"`
}

type RecommendedProductResponse struct {
	ProductResponse
	AIDescription string `json:"ai_description"`
}

type RecommendResponse struct {
	Query    string                       `json:"query"`
	Products []RecommendedProductResponse `json:"products"`
}

type ChatRequest struct {
	Message *string          `json:"message"`
	History []map[string]any `json:"history"`
}

type ChatResponse struct {
	Reply    string            `json:"reply"`
	Products []ProductResponse `json:"products"`
}

type AnalyticsResponse struct {
	TotalProducts int         `json:"total_products"`
	AvgPrice      float64     `json:"avg_price"`
	TopBrands     BrandCounts `json:"top_brands" swaggertype:"object,number"`
}

// BrandCounts сериализуется в JSON-объект с сохранением порядка брендов.
type BrandCounts []usecase.BrandCount

func (b BrandCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, bc := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(bc.Brand)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(bc.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type QueriesResponse struct {
	Queries []QueryCountResponse `json:"queries"`
}

type QueryCountResponse struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// MAPPERS

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:              p.ID,
		Title:           p.Title,
		Brand:           p.Brand,
		Price:           p.Price,
		Description:     p.Description,
		Image:           p.Image,
		Material:        p.Material,
		Color:           p.Color,
		SimilarityScore: p.SimilarityScore,
	}
}

func toProductsResponse(products []domain.Product) []ProductResponse {
	res := make([]ProductResponse, len(products))
	for i, p := range products {
		res[i] = toProductResponse(p)
	}
	return res
}

func toRecommendResponse(res *usecase.RecommendRes) *RecommendResponse {
	products := make([]RecommendedProductResponse, len(res.Products))
	for i, p := range res.Products {
		products[i] = RecommendedProductResponse{
			ProductResponse: toProductResponse(p.Product),
			AIDescription:   p.AIDescription,
		}
	}

	return &RecommendResponse{
		Query:    res.Query,
		Products: products,
	}
}

func toChatResponse(res *usecase.ChatRes) *ChatResponse {
	return &ChatResponse{
		Reply:    res.Reply,
		Products: toProductsResponse(res.Products),
	}
}

func toAnalyticsResponse(res *usecase.AnalyticsRes) *AnalyticsResponse {
	return &AnalyticsResponse{
		TotalProducts: res.TotalProducts,
		AvgPrice:      res.AvgPrice,
		TopBrands:     BrandCounts(res.TopBrands),
	}
}

func toQueriesResponse(queries []usecase.QueryCount) *QueriesResponse {
	res := make([]QueryCountResponse, len(queries))
	for i, q := range queries {
		res[i] = QueryCountResponse{Query: q.Query, Count: q.Count}
	}
	return &QueriesResponse{Queries: res}
}
