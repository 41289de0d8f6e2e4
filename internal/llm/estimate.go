package llm

import (
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Estimator approximates token counts for providers that report none.
type Estimator interface {
	Estimate(text string) int
}

// CharEstimator assumes roughly four characters per token.
type CharEstimator struct{}

// Estimate returns ceil(chars/4).
func (CharEstimator) Estimate(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

// TiktokenEstimator counts BPE tokens. Anthropic, Mistral and Llama
// tokenizers differ from OpenAI's, so the count is still an estimate.
type TiktokenEstimator struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenEstimator selects the encoding for model, falling back to
// cl100k_base. If no encoding can be loaded the estimator counts characters.
func NewTiktokenEstimator(model string) *TiktokenEstimator {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			enc = nil
		}
	}
	return &TiktokenEstimator{enc: enc}
}

// Estimate returns the token count of text.
func (e *TiktokenEstimator) Estimate(text string) int {
	if e.enc == nil {
		return CharEstimator{}.Estimate(text)
	}
	return len(e.enc.Encode(text, nil, nil))
}
