package catalog

import (
	"math"
	"strconv"
)

// costPrecision is the number of decimals every cost string carries.
const costPrecision = 6

// Pricing is a per-token price in USD. Source tables quote prices per token,
// per thousand or per million tokens; the constructors normalize them.
type Pricing struct {
	Input  float64 `yaml:"input" toml:"input"`
	Output float64 `yaml:"output" toml:"output"`
}

// PerToken builds a Pricing from per-token rates.
func PerToken(input, output float64) Pricing {
	return Pricing{Input: input, Output: output}
}

// PerThousand builds a Pricing from per-1000-token rates.
func PerThousand(input, output float64) Pricing {
	return Pricing{Input: input / 1e3, Output: output / 1e3}
}

// PerMillion builds a Pricing from per-1e6-token rates.
func PerMillion(input, output float64) Pricing {
	return Pricing{Input: input / 1e6, Output: output / 1e6}
}

// CostInfo is a rendered cost breakdown in USD.
type CostInfo struct {
	InputCost  string `json:"inputCost"`
	OutputCost string `json:"outputCost"`
	TotalCost  string `json:"totalCost"`
}

// ZeroCost is the cost breakdown of a free or untracked request.
func ZeroCost() CostInfo {
	zero := formatCost(0)
	return CostInfo{InputCost: zero, OutputCost: zero, TotalCost: zero}
}

// CalculateCost multiplies token counts by the rates and rounds each figure
// to six decimals. The total is the sum of the rounded parts.
func CalculateCost(p Pricing, inputTokens, outputTokens int) CostInfo {
	in := round(float64(max(inputTokens, 0)) * p.Input)
	out := round(float64(max(outputTokens, 0)) * p.Output)
	return CostInfo{
		InputCost:  formatCost(in),
		OutputCost: formatCost(out),
		TotalCost:  formatCost(round(in + out)),
	}
}

func round(v float64) float64 {
	scale := math.Pow10(costPrecision)
	return math.Round(v*scale) / scale
}

func formatCost(v float64) string {
	return strconv.FormatFloat(v, 'f', costPrecision, 64)
}
