package domain

// ChatRequest is one single-turn completion call.
type ChatRequest struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// ChatResponse is the completion text plus billed usage.
type ChatResponse struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
