package genai

import (
	"testing"

	"google.golang.org/genai"
)

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: "A sleek oak table. "},
				{Text: "Built to last."},
			}},
		}},
	}

	got, err := responseText(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "A sleek oak table. Built to last." {
		t.Errorf("got %q", got)
	}
}

func TestResponseText_Empty(t *testing.T) {
	cases := map[string]*genai.GenerateContentResponse{
		"nil":           nil,
		"no candidates": {},
		"blocked":       {PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety}},
		"no content":    {Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonMaxTokens}}},
	}

	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := responseText(resp); err == nil {
				t.Error("expected error")
			}
		})
	}
}
