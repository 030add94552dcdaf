// Package narrative generates the digest's insights section via OpenAI.
package narrative

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/finnai/digest-bot/internal/domain"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.7
	maxTokens          = 500
)

// ErrEmptyCompletion is returned when the model answers with no content.
var ErrEmptyCompletion = errors.New("empty completion")

// Client wraps the OpenAI chat-completion API. One instance is shared for
// all users; model and temperature come from each user's settings.
type Client struct {
	api *openai.Client
}

// New builds a narrative client for the given API key.
func New(apiKey string) *Client {
	return &Client{api: openai.NewClient(apiKey)}
}

// Narrate requests a short narrative for the prompt, using the user's
// configured model and temperature with sensible defaults.
func (c *Client) Narrate(ctx context.Context, user *domain.User, prompt string) (string, error) {
	model := user.Settings.Model
	if model == "" {
		model = defaultModel
	}
	temperature := user.Settings.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}
