package domain

// GenerationRequest is a single prompt sent to a text-generation backend.
type GenerationRequest struct {
	Prompt      string
	System      string
	Temperature float64
	JSON        bool
	MaxTokens   int
}
