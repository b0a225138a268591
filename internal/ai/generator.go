package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Generator produces the short texts that enrich a mood log's detail view.
type Generator interface {
	Motivation(ctx context.Context, mood string) (string, error)
	Title(ctx context.Context, mood, satisfaction string) (string, error)
}

// OpenAIGenerator generates texts with the OpenAI chat API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator backed by the given API key.
func NewOpenAIGenerator(apiKey string) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  openai.GPT3Dot5Turbo,
	}
}

// Motivation returns a short motivational message for the mood.
func (g *OpenAIGenerator) Motivation(ctx context.Context, mood string) (string, error) {
	prompt := fmt.Sprintf(
		"Generate a unique motivational message for someone feeling %s. Make it positive and encouraging. Keep it under 20 words.",
		mood,
	)
	text, err := g.complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate motivational message: %w", err)
	}
	return text, nil
}

// Title returns a short engaging title for the day's log.
func (g *OpenAIGenerator) Title(ctx context.Context, mood, satisfaction string) (string, error) {
	prompt := fmt.Sprintf(
		"Generate a short engaging title (3-5 words) for a daily mood log. Mood: %s, Satisfaction: %s. Example: \"Balanced\", \"Gentle\", \"Restore\".",
		mood, satisfaction,
	)
	text, err := g.complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate daily title: %w", err)
	}
	return strings.Trim(text, `"'`), nil
}

func (g *OpenAIGenerator) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// StaticGenerator returns fixed texts. Selected when no API key is configured
// and in tests.
type StaticGenerator struct{}

// Motivation returns a generic encouragement mentioning the mood.
func (StaticGenerator) Motivation(_ context.Context, mood string) (string, error) {
	return fmt.Sprintf("Every day counts. Feeling %s today is part of the journey.", mood), nil
}

// Title returns a fixed title per satisfaction level.
func (StaticGenerator) Title(_ context.Context, _, satisfaction string) (string, error) {
	switch satisfaction {
	case "Very good":
		return "Gentle", nil
	case "Good":
		return "Balanced", nil
	case "Not so good":
		return "Sad", nil
	case "Not good at all":
		return "Restore", nil
	}
	return "Daily Log", nil
}
