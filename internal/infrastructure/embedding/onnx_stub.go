//go:build !cgo

package embedding

import (
	"context"
	"errors"
)

// ONNXEncoder недоступен без CGO, см. onnx_encoder.go.
type ONNXEncoder struct{}

func NewONNXEncoder(_, _ string, _, _ int) (*ONNXEncoder, error) {
	return nil, errors.New("onnx encoder requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}

func (o *ONNXEncoder) Encode(context.Context, string) ([]float32, error) {
	return nil, errors.New("onnx encoder is not available")
}

func (o *ONNXEncoder) Dimensions() int { return 0 }

func (o *ONNXEncoder) Close() error { return nil }
