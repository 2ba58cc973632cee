// Package genai генерирует тексты через Gemini API.
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DRSN-tech/furniture-recs/pkg/e"
	"google.golang.org/genai"
)

// Generator делает один вызов модели на запрос, без повторов.
type Generator struct {
	models  *genai.Models
	model   string
	timeout time.Duration
}

func NewGenerator(ctx context.Context, apiKey, model string, timeout time.Duration) (*Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Generator{
		models:  client.Models,
		model:   model,
		timeout: timeout,
	}, nil
}

func (g *Generator) GenerateText(ctx context.Context, prompt string) (string, error) {
	const op = "genai.Generator.GenerateText"

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", e.Wrap(op, fmt.Errorf("%w: %w", e.ErrGeneration, err))
	}

	text, err := responseText(resp)
	if err != nil {
		return "", e.Wrap(op, fmt.Errorf("%w: %w", e.ErrGeneration, err))
	}

	return text, nil
}

// responseText склеивает текстовые части первого кандидата.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", errors.New("response has no candidates")
	}

	content := resp.Candidates[0].Content
	if content == nil {
		return "", fmt.Errorf("candidate has no content (finish reason %s)", resp.Candidates[0].FinishReason)
	}

	var sb strings.Builder
	for _, part := range content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}

	return sb.String(), nil
}
