// Package embedding переводит тексты товаров и запросов в векторы.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/DRSN-tech/furniture-recs/pkg/e"
)

// HTTPEncoder обращается к OpenAI-совместимому эндпоинту /embeddings.
type HTTPEncoder struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	httpClient *http.Client
}

func NewHTTPEncoder(baseURL, apiKey, model string, dimensions int, timeout time.Duration) *HTTPEncoder {
	return &HTTPEncoder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		dimensions: dimensions,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Encode делает один запрос без повторов. Текст передаётся как есть, в том числе пустой.
func (h *HTTPEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	const op = "HTTPEncoder.Encode"

	body, err := json.Marshal(embeddingRequest{Model: h.model, Input: text})
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: marshal request: %w", e.ErrEncode, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: build request: %w", e.ErrEncode, err))
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: %w", e.ErrEncode, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: read response: %w", e.ErrEncode, err))
	}
	if resp.StatusCode >= 300 {
		return nil, e.Wrap(op, fmt.Errorf("%w: status %d: %s", e.ErrEncode, resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: parse response: %w", e.ErrEncode, err))
	}
	if len(parsed.Data) == 0 {
		return nil, e.Wrap(op, fmt.Errorf("%w: empty embedding in response", e.ErrEncode))
	}

	vector := parsed.Data[0].Embedding
	if h.dimensions > 0 && len(vector) != h.dimensions {
		return nil, e.Wrap(op, fmt.Errorf("%w: %w: got %d, want %d", e.ErrEncode, e.ErrDimension, len(vector), h.dimensions))
	}

	return vector, nil
}

func (h *HTTPEncoder) Dimensions() int {
	return h.dimensions
}
