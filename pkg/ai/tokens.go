package ai

const defaultTokenDivisor = 4

// EstimateTokens approximates token usage from character length for providers
// that do not report usage. The divisor is the assumed chars-per-token ratio;
// non-positive values fall back to the default.
func EstimateTokens(text string, divisor int) int {
	if divisor <= 0 {
		divisor = defaultTokenDivisor
	}
	if text == "" {
		return 0
	}
	return (len(text) + divisor - 1) / divisor
}
