package llm

// RoughEstimateTokens approximates the token count of text at three runes
// per token, never less than one.
func RoughEstimateTokens(text string) int {
	avgCharsPerToken := 3.0
	tokens := int(float64(len([]rune(text))) / avgCharsPerToken)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// RoughEstimateMessagesTokens sums RoughEstimateTokens over every message.
func RoughEstimateMessagesTokens(messages []Message) int {
	total := 0
	for _, msg := range messages {
		total += RoughEstimateTokens(msg.Content)
	}
	return total
}
