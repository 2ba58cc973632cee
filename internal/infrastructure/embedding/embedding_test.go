package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DRSN-tech/furniture-recs/pkg/e"
)

const testVocab = "[PAD]\n[UNK]\n[CLS]\n[SEP]\noak\ntable\n##s\nchair\n,\nsofa\ncafe\n"

func TestWordPiece_Tokenize(t *testing.T) {
	w, err := NewWordPiece(strings.NewReader(testVocab))
	if err != nil {
		t.Fatalf("NewWordPiece: %v", err)
	}

	got := w.Tokenize("Oak tables, CAFÉ zebra", 10)

	wantIDs := []int64{2, 4, 5, 6, 8, 10, 1, 3, 0, 0}
	wantMask := []int64{1, 1, 1, 1, 1, 1, 1, 1, 0, 0}
	for i := range wantIDs {
		if got.InputIDs[i] != wantIDs[i] || got.AttentionMask[i] != wantMask[i] {
			t.Fatalf("position %d: ids %v mask %v", i, got.InputIDs, got.AttentionMask)
		}
	}
	for _, v := range got.TokenTypeIDs {
		if v != 0 {
			t.Fatalf("token type ids must be zero: %v", got.TokenTypeIDs)
		}
	}
}

func TestWordPiece_Truncates(t *testing.T) {
	w, err := NewWordPiece(strings.NewReader(testVocab))
	if err != nil {
		t.Fatal(err)
	}

	got := w.Tokenize("oak oak oak oak oak oak", 4)
	want := []int64{2, 4, 4, 3}
	for i := range want {
		if got.InputIDs[i] != want[i] {
			t.Fatalf("got %v, want %v", got.InputIDs, want)
		}
	}
}

func TestWordPiece_MissingSpecialTokens(t *testing.T) {
	if _, err := NewWordPiece(strings.NewReader("oak\ntable\n")); err == nil {
		t.Error("expected error for vocab without special tokens")
	}
}

func TestMeanPool(t *testing.T) {
	hidden := []float32{
		3, 0,
		0, 4,
		100, 100, // замаскированный токен
	}
	got := meanPool(hidden, []int64{1, 1, 0}, 2)

	if math.Abs(float64(got[0])-0.6) > 1e-6 || math.Abs(float64(got[1])-0.8) > 1e-6 {
		t.Errorf("got %v", got)
	}
}

func TestHTTPEncoder_Encode(t *testing.T) {
	var gotReq embeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" || r.Header.Get("Authorization") != "Bearer key" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	enc := NewHTTPEncoder(srv.URL+"/v1/", "key", "all-MiniLM-L6-v2", 3, time.Second)
	vec, err := enc.Encode(context.Background(), "")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if len(vec) != 3 || vec[2] != 0.3 {
		t.Errorf("got %v", vec)
	}
	if gotReq.Model != "all-MiniLM-L6-v2" || gotReq.Input != "" {
		t.Errorf("unexpected request: %+v", gotReq)
	}
}

func TestHTTPEncoder_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"wrong dimension", http.StatusOK, `{"data":[{"embedding":[0.1]}]}`},
		{"no data", http.StatusOK, `{"data":[]}`},
		{"invalid json", http.StatusOK, `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPEncoder(srv.URL, "", "m", 3, time.Second).Encode(context.Background(), "oak")
			if !errors.Is(err, e.ErrEncode) {
				t.Errorf("expected ErrEncode, got %v", err)
			}
		})
	}
}
