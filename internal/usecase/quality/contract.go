package quality

// Tokenizer splits text into comparable tokens.
type Tokenizer interface {
	Tokenize(text string) []string
}
