package driven

// TokenCounter measures and truncates text in model tokens.
type TokenCounter interface {
	// Count returns the number of tokens in text.
	Count(text string) (int, error)

	// Truncate returns the longest prefix of text that fits in max tokens.
	Truncate(text string, max int) (string, error)
}
