package llm

import "context"

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client is the oracle boundary: a fallible, latent remote model queried per
// decision. Implementations must honor ctx cancellation and deadlines.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}
