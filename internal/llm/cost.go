package llm

import "unicode/utf8"

// modelPricing holds per-model pricing in USD per 1M tokens.
type modelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// priceTable maps model identifiers to their pricing.
var priceTable = map[string]modelPricing{
	"gpt-4o":        {InputPerMillion: 2.50, OutputPerMillion: 10.00},
	"gpt-4o-mini":   {InputPerMillion: 0.15, OutputPerMillion: 0.60},
	"gpt-4.1":       {InputPerMillion: 2.00, OutputPerMillion: 8.00},
	"gpt-4.1-mini":  {InputPerMillion: 0.40, OutputPerMillion: 1.60},
	"gpt-3.5-turbo": {InputPerMillion: 0.50, OutputPerMillion: 1.50},
}

// EstimateCost returns the estimated cost in USD for the given model and token counts.
// Returns 0 if the model is not found in the price table; local models are free.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := priceTable[model]
	if !ok {
		return 0
	}

	inputCost := float64(inputTokens) / 1_000_000.0 * pricing.InputPerMillion
	outputCost := float64(outputTokens) / 1_000_000.0 * pricing.OutputPerMillion
	return inputCost + outputCost
}

// EstimateTokens provides a rough token count for text, assuming about
// four characters per token.
func EstimateTokens(text string) int {
	chars := utf8.RuneCountInString(text)
	n := chars / 4
	if n == 0 && chars > 0 {
		return 1
	}
	return n
}

// embeddingPriceTable holds embedding prices in USD per 1M input tokens.
var embeddingPriceTable = map[string]float64{
	"text-embedding-3-small": 0.02,
	"text-embedding-3-large": 0.13,
	"text-embedding-ada-002": 0.10,
}

// EstimateEmbeddingCost returns the estimated cost in USD of embedding
// tokens with model. Unknown and local models cost 0.
func EstimateEmbeddingCost(model string, tokens int) float64 {
	return float64(tokens) / 1_000_000.0 * embeddingPriceTable[model]
}
