package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DRSN-tech/furniture-recs/internal/domain"
	"github.com/DRSN-tech/furniture-recs/internal/usecase"
	"github.com/DRSN-tech/furniture-recs/pkg/e"
	"github.com/DRSN-tech/furniture-recs/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type fakeRecUC struct {
	err      error
	lastReq  *usecase.RecommendReq
	lastChat *usecase.ChatReq
}

func (f *fakeRecUC) Recommend(_ context.Context, req *usecase.RecommendReq) (*usecase.RecommendRes, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.RecommendRes{
		Query: req.Query,
		Products: []usecase.RecommendedProduct{{
			Product: domain.Product{
				ID: "p1", Title: "Oak chair", Brand: "Nordic", Price: 120,
				Material: "Oak", Color: domain.NotAvailable, SimilarityScore: 0.91,
			},
			AIDescription: "A sturdy chair.",
		}},
	}, nil
}

func (f *fakeRecUC) Chat(_ context.Context, req *usecase.ChatReq) (*usecase.ChatRes, error) {
	f.lastChat = req
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.ChatRes{
		Reply:    fmt.Sprintf("Found 1 options for '%s':", req.Message),
		Products: []domain.Product{{ID: "p2", Title: "Sofa"}},
	}, nil
}

type fakeAnalyticsUC struct {
	queries   []usecase.QueryCount
	lastLimit int
}

func (f *fakeAnalyticsUC) Summary(context.Context) *usecase.AnalyticsRes {
	return &usecase.AnalyticsRes{
		TotalProducts: 3,
		AvgPrice:      150,
		TopBrands: []usecase.BrandCount{
			{Brand: "Zeta", Count: 2},
			{Brand: "Alpha", Count: 1},
		},
	}
}

func (f *fakeAnalyticsUC) PopularQueries(_ context.Context, limit int) ([]usecase.QueryCount, error) {
	f.lastLimit = limit
	return f.queries, nil
}

func newTestRouter(rec *fakeRecUC, an *fakeAnalyticsUC) http.Handler {
	mux := chi.NewRouter()
	NewRouter(mux, logger.Nop(), []string{"http://localhost:3000"}).Init(rec, an)
	return mux
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	rec := do(t, newTestRouter(&fakeRecUC{}, &fakeAnalyticsUC{}), http.MethodGet, "/", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"message":"Furniture API","status":"running"}` {
		t.Errorf("body: %s", got)
	}
}

func TestRecommend(t *testing.T) {
	uc := &fakeRecUC{}
	rec := do(t, newTestRouter(uc, &fakeAnalyticsUC{}), http.MethodGet, "/api/recommend?query=oak+chair&top_k=7", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d, body: %s", rec.Code, rec.Body.String())
	}
	if uc.lastReq.Query != "oak chair" || uc.lastReq.TopK != 7 {
		t.Errorf("request: %+v", uc.lastReq)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	products := body["products"].([]any)
	p := products[0].(map[string]any)
	if p["id"] != "p1" || p["similarity_score"] != 0.91 || p["ai_description"] != "A sturdy chair." || p["color"] != "N/A" {
		t.Errorf("product: %v", p)
	}
}

func TestRecommend_DefaultTopK(t *testing.T) {
	uc := &fakeRecUC{}
	do(t, newTestRouter(uc, &fakeAnalyticsUC{}), http.MethodGet, "/api/recommend?query=sofa", "")

	if uc.lastReq.TopK != usecase.DefaultTopK {
		t.Errorf("top_k: %d", uc.lastReq.TopK)
	}
}

func TestRecommend_BadInput(t *testing.T) {
	tests := map[string]string{
		"missing query": "/api/recommend",
		"zero top_k":    "/api/recommend?query=a&top_k=0",
		"large top_k":   "/api/recommend?query=a&top_k=101",
		"text top_k":    "/api/recommend?query=a&top_k=five",
	}

	for name, target := range tests {
		t.Run(name, func(t *testing.T) {
			uc := &fakeRecUC{}
			rec := do(t, newTestRouter(uc, &fakeAnalyticsUC{}), http.MethodGet, target, "")

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status: %d", rec.Code)
			}
			if uc.lastReq != nil {
				t.Error("usecase must not be called")
			}
		})
	}
}

func TestRecommend_EmptyQueryPassesThrough(t *testing.T) {
	uc := &fakeRecUC{}
	rec := do(t, newTestRouter(uc, &fakeAnalyticsUC{}), http.MethodGet, "/api/recommend?query=", "")

	if rec.Code != http.StatusOK || uc.lastReq == nil || uc.lastReq.Query != "" {
		t.Errorf("status %d, request %+v", rec.Code, uc.lastReq)
	}
}

func TestRecommend_QueryFailure(t *testing.T) {
	uc := &fakeRecUC{err: e.Wrap("op", fmt.Errorf("%w: %w", e.ErrQuery, fmt.Errorf("unavailable")))}
	rec := do(t, newTestRouter(uc, &fakeAnalyticsUC{}), http.MethodGet, "/api/recommend?query=a", "")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status: %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"code":502,"message":"vector search failed"}` {
		t.Errorf("body: %s", got)
	}
}

func TestChat(t *testing.T) {
	uc := &fakeRecUC{}
	rec := do(t, newTestRouter(uc, &fakeAnalyticsUC{}), http.MethodPost, "/api/chat",
		`{"message":"cozy sofa","history":[{"role":"user","content":"hi"}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d, body: %s", rec.Code, rec.Body.String())
	}

	var body ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Reply != "Found 1 options for 'cozy sofa':" || len(body.Products) != 1 {
		t.Errorf("body: %+v", body)
	}
	if strings.Contains(rec.Body.String(), "ai_description") {
		t.Error("chat products must not carry ai_description")
	}
}

func TestChat_BadBody(t *testing.T) {
	tests := map[string]string{
		"invalid json":    `{"message":`,
		"missing message": `{"history":[]}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			uc := &fakeRecUC{}
			rec := do(t, newTestRouter(uc, &fakeAnalyticsUC{}), http.MethodPost, "/api/chat", body)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status: %d", rec.Code)
			}
			if uc.lastChat != nil {
				t.Error("usecase must not be called")
			}
		})
	}
}

func TestAnalytics_TopBrandsKeepOrder(t *testing.T) {
	rec := do(t, newTestRouter(&fakeRecUC{}, &fakeAnalyticsUC{}), http.MethodGet, "/api/analytics", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	want := `{"total_products":3,"avg_price":150,"top_brands":{"Zeta":2,"Alpha":1}}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Errorf("body:\n got %s\nwant %s", got, want)
	}
}

func TestBrandCounts_Empty(t *testing.T) {
	b, err := json.Marshal(BrandCounts(nil))
	if err != nil || string(b) != "{}" {
		t.Errorf("got %s, %v", b, err)
	}
}

func TestPopularQueries(t *testing.T) {
	an := &fakeAnalyticsUC{queries: []usecase.QueryCount{{Query: "oak table", Count: 4}}}
	h := newTestRouter(&fakeRecUC{}, an)

	rec := do(t, h, http.MethodGet, "/api/analytics/queries", "")
	if rec.Code != http.StatusOK || an.lastLimit != defaultQueriesLimit {
		t.Fatalf("status %d, limit %d", rec.Code, an.lastLimit)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"queries":[{"query":"oak table","count":4}]}` {
		t.Errorf("body: %s", got)
	}

	if rec := do(t, h, http.MethodGet, "/api/analytics/queries?limit=0", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("limit=0 status: %d", rec.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	newTestRouter(&fakeRecUC{}, &fakeAnalyticsUC{}).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin: %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("allow credentials: %q", got)
	}
}

func TestToHTTPResponse(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{e.Wrap("op", e.ErrInvalidTopK), http.StatusBadRequest},
		{e.ErrEmptyMessage, http.StatusBadRequest},
		{e.Wrap("op", e.ErrQuery), http.StatusBadGateway},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if code, _ := ToHTTPResponse(tt.err); code != tt.code {
			t.Errorf("%v: got %d, want %d", tt.err, code, tt.code)
		}
	}
}
