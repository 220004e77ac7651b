package gateway

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// modelRate is the USD price per one million tokens.
type modelRate struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// rateTable maps known model names to their pricing. Unknown models are
// remapped to the gateway's default model before lookup.
var rateTable = map[string]modelRate{
	"gpt-4o":        {InputPerMillion: 2.50, OutputPerMillion: 10.00},
	"gpt-4o-mini":   {InputPerMillion: 0.15, OutputPerMillion: 0.60},
	"gpt-4.1":       {InputPerMillion: 2.00, OutputPerMillion: 8.00},
	"gpt-4.1-mini":  {InputPerMillion: 0.40, OutputPerMillion: 1.60},
	"gpt-4.1-nano":  {InputPerMillion: 0.10, OutputPerMillion: 0.40},
	"gpt-3.5-turbo": {InputPerMillion: 0.50, OutputPerMillion: 1.50},
}

// ResolveModel maps the requested model to one present in the rate table.
// Unknown or empty model names resolve to the configured default.
func ResolveModel(requested, fallback string) string {
	name := strings.TrimSpace(strings.ToLower(requested))
	if name == "" {
		return fallback
	}
	if _, ok := rateTable[name]; ok {
		return name
	}
	return fallback
}

// CostUSD computes the dollar cost of a call from actual token counts.
func CostUSD(model string, inputTokens, outputTokens int) float64 {
	rate, ok := rateTable[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)*rate.InputPerMillion/1e6 +
		float64(outputTokens)*rate.OutputPerMillion/1e6
}

// Estimator counts tokens for cost pre-checks before a call is made.
type Estimator struct {
	once     sync.Once
	encoding *tiktoken.Tiktoken
}

// NewEstimator creates a lazy token estimator. The BPE encoding is loaded on
// first use so construction never fails.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// CountTokens returns the token count for the given text using the
// cl100k_base encoding, falling back to a runes/4 heuristic when the
// encoding cannot be loaded.
func (e *Estimator) CountTokens(text string) int {
	e.once.Do(func() {
		enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		if err == nil {
			e.encoding = enc
		}
	})

	if e.encoding != nil {
		return len(e.encoding.Encode(text, nil, nil))
	}

	// Rough heuristic: ~4 characters per token for English prose.
	count := utf8.RuneCountInString(text) / 4
	if count == 0 && text != "" {
		count = 1
	}
	return count
}

// EstimateCostUSD predicts the worst-case cost of a call before it is made:
// actual input tokens plus the full output token allowance.
func (e *Estimator) EstimateCostUSD(model, input string, maxOutputTokens int) float64 {
	return CostUSD(model, e.CountTokens(input), maxOutputTokens)
}
