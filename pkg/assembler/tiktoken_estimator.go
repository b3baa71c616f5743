package assembler

import (
	tiktoken "github.com/pkoukk/tiktoken-go"
)

// NewTikTokenEstimator returns a TokenEstimator backed by tiktoken-go for the given model.
// If the model is unknown, EncodingForModel returns an error.
func NewTikTokenEstimator(model string) (TokenEstimator, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, err
	}
	return func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}, nil
}

// EstimatorFor prefers tiktoken for model and falls back to ApproxTokens,
// e.g. for non-OpenAI models or when the encoding cannot be loaded offline.
func EstimatorFor(model string) TokenEstimator {
	if est, err := NewTikTokenEstimator(model); err == nil {
		return est
	}
	return ApproxTokens
}
