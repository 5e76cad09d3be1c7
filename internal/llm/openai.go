package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"
)

// OpenAICompleter implements Completer over the OpenAI chat completion API.
type OpenAICompleter struct {
	client *openai.Client
}

// NewOpenAICompleter creates a completer with the API key from the
// environment.
func NewOpenAICompleter() (*OpenAICompleter, error) {
	const op = "NewOpenAICompleter"

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("%s: OPENAI_API_KEY environment variable is required", op)
	}
	return NewOpenAICompleterWithClient(openai.NewClient(apiKey)), nil
}

// NewOpenAICompleterWithClient creates a completer with an explicit client (for testing).
func NewOpenAICompleterWithClient(client *openai.Client) *OpenAICompleter {
	return &OpenAICompleter{client: client}
}

// Complete sends the prompt as a single user message with the given
// sampling parameters and returns the response envelope.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string, params SamplingParams) (*Envelope, error) {
	const op = "Complete"

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       params.Model,
		Temperature: params.Temperature,
		TopP:        params.TopP,
		MaxTokens:   params.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return nil, WrapLLMError(op, ErrProvider, err.Error())
	}

	if len(resp.Choices) == 0 {
		return nil, NewLLMError(op, ErrEmptyResponse, "no response choices")
	}

	return &Envelope{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
