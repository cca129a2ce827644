package utils

// CountTokens estimates how many model tokens the text occupies, approximating
// one token per four characters. It is only ever compared against the num_ctx
// budget in logs; nothing truncates on it.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}
