package reflect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/insight-deck/core/internal/config"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
)

const maxOutputTokens = 512

var errNotConfigured = errors.New("ai provider is not configured")

// Service proxies reflection prompts to the configured LLM provider. The
// server owns the prompt; clients only supply their card, question and
// answer.
type Service struct {
	cfg config.AIConfig
}

func NewService(cfg config.AIConfig) *Service {
	return &Service{cfg: cfg}
}

// Generate produces a reflection for the user's answer.
func (s *Service) Generate(ctx context.Context, cardTitle, question, answer string) (string, error) {
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		return "", errNotConfigured
	}

	prompt := buildReflectionPrompt(cardTitle, question, answer)
	if s.cfg.Provider == "anthropic" {
		return s.callAnthropic(ctx, prompt)
	}
	return s.callOpenAI(ctx, prompt)
}

func (s *Service) callOpenAI(ctx context.Context, prompt string) (string, error) {
	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(s.cfg.APIKey),
		openaioption.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(s.cfg.BaseURL); base != "" {
		opts = append(opts, openaioption.WithBaseURL(strings.TrimRight(base, "/")))
	}
	client := openaiclient.NewClient(opts...)

	resp, err := client.Chat.Completions.New(ctx, openaiclient.ChatCompletionNewParams{
		Model: openaiclient.ChatModel(s.cfg.Model),
		Messages: []openaiclient.ChatCompletionMessageParamUnion{
			openaiclient.SystemMessage(systemPrompt),
			openaiclient.UserMessage(prompt),
		},
		MaxTokens: openaiclient.Int(maxOutputTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (s *Service) callAnthropic(ctx context.Context, prompt string) (string, error) {
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(s.cfg.APIKey),
		anthropicoption.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(s.cfg.BaseURL); base != "" {
		opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(base, "/")))
	}
	client := anthropicclient.NewClient(opts...)

	msg, err := client.Messages.New(ctx, anthropicclient.MessageNewParams{
		Model:     anthropicclient.Model(s.cfg.Model),
		MaxTokens: maxOutputTokens,
		System: []anthropicclient.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropicclient.MessageParam{
			anthropicclient.NewUserMessage(anthropicclient.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", errors.New("anthropic returned no text content")
	}
	return strings.TrimSpace(out.String()), nil
}
