//go:build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/DRSN-tech/furniture-recs/pkg/e"
	ort "github.com/yalue/onnxruntime_go"
)

// ONNXEncoder считает эмбеддинги sentence-transformers модели локально через onnxruntime.
// Требует CGO и разделяемую библиотеку onnxruntime.
type ONNXEncoder struct {
	session    *ort.AdvancedSession
	tokenizer  *WordPiece
	dimensions int
	maxTokens  int

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	hiddenState   *ort.Tensor[float32] // [1, maxTokens, dimensions]

	mu sync.Mutex
}

func NewONNXEncoder(modelPath, vocabPath string, dimensions, maxTokens int) (*ONNXEncoder, error) {
	tokenizer, err := LoadWordPiece(vocabPath)
	if err != nil {
		return nil, err
	}

	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnx runtime: %w", err)
		}
	}

	enc := &ONNXEncoder{
		tokenizer:  tokenizer,
		dimensions: dimensions,
		maxTokens:  maxTokens,
	}

	inputShape := ort.NewShape(1, int64(maxTokens))
	if enc.inputIDs, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
		return nil, fmt.Errorf("create input_ids tensor: %w", err)
	}
	if enc.attentionMask, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
		enc.Close()
		return nil, fmt.Errorf("create attention_mask tensor: %w", err)
	}
	if enc.tokenTypeIDs, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
		enc.Close()
		return nil, fmt.Errorf("create token_type_ids tensor: %w", err)
	}
	if enc.hiddenState, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(maxTokens), int64(dimensions))); err != nil {
		enc.Close()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	enc.session, err = ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		[]ort.ArbitraryTensor{enc.inputIDs, enc.attentionMask, enc.tokenTypeIDs},
		[]ort.ArbitraryTensor{enc.hiddenState},
		nil,
	)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return enc, nil
}

// Encode возвращает усреднённый по маске внимания и L2-нормированный вектор.
func (o *ONNXEncoder) Encode(_ context.Context, text string) ([]float32, error) {
	const op = "ONNXEncoder.Encode"

	tokens := o.tokenizer.Tokenize(text, o.maxTokens)

	o.mu.Lock()
	defer o.mu.Unlock()

	copy(o.inputIDs.GetData(), tokens.InputIDs)
	copy(o.attentionMask.GetData(), tokens.AttentionMask)
	copy(o.tokenTypeIDs.GetData(), tokens.TokenTypeIDs)

	if err := o.session.Run(); err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: inference: %w", e.ErrEncode, err))
	}

	return meanPool(o.hiddenState.GetData(), tokens.AttentionMask, o.dimensions), nil
}

func (o *ONNXEncoder) Dimensions() int {
	return o.dimensions
}

func (o *ONNXEncoder) Close() error {
	var err error
	if o.session != nil {
		err = o.session.Destroy()
		o.session = nil
	}
	for _, t := range []*ort.Tensor[int64]{o.inputIDs, o.attentionMask, o.tokenTypeIDs} {
		if t != nil {
			_ = t.Destroy()
		}
	}
	if o.hiddenState != nil {
		_ = o.hiddenState.Destroy()
	}
	return err
}
