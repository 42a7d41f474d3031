package prompt

// Counter measures a prompt in model tokens.
type Counter interface {
	Count(text string) int
}
