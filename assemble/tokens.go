package assemble

import (
	"github.com/pkoukk/tiktoken-go"
)

// TokensPerCharEstimate is the heuristic ratio of characters per token.
const TokensPerCharEstimate = 4

// TokenEstimator estimates the token count of a text.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// HeuristicEstimator approximates token counts as ceil(len/4). This is a
// documented approximation, not exact tokenization; it is cheap enough to
// run on every candidate and errs on the generous side for English prose.
type HeuristicEstimator struct{}

var _ TokenEstimator = (*HeuristicEstimator)(nil)

// EstimateTokens returns the estimated token count for the text.
func (HeuristicEstimator) EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + TokensPerCharEstimate - 1) / TokensPerCharEstimate
}

// TiktokenEstimator counts tokens with a real BPE tokenizer. Slower than
// the heuristic but exact for models using the given encoding.
type TiktokenEstimator struct {
	encoding *tiktoken.Tiktoken
}

var _ TokenEstimator = (*TiktokenEstimator)(nil)

// NewTiktokenEstimator creates an estimator for the named encoding,
// e.g. "cl100k_base".
func NewTiktokenEstimator(encodingName string) (*TiktokenEstimator, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	return &TiktokenEstimator{encoding: encoding}, nil
}

// EstimateTokens returns the exact token count for the text.
func (e *TiktokenEstimator) EstimateTokens(text string) int {
	return len(e.encoding.Encode(text, nil, nil))
}
