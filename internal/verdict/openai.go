package verdict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/scamscope/scamscope/internal/urlcheck"
)

const systemPrompt = "You analyze messages for scam intent and return ONLY strict JSON " +
	`matching {"category":"scam|suspicious|legitimate","confidence":0.0,"summary":"...","red_flags":["..."]}. ` +
	"No prose, no code fences."

// OpenAIGenerator asks a chat-completion model for a scam verdict. The model
// sees the raw text together with the URL reputation findings.
type OpenAIGenerator struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration
}

func NewOpenAIGenerator(apiKey, baseURL, model string, timeout time.Duration) *OpenAIGenerator {
	if model == "" {
		model = openai.GPT4oMini
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIGenerator{apiKey: apiKey, baseURL: baseURL, model: model, timeout: timeout}
}

func (g *OpenAIGenerator) Analyze(ctx context.Context, text string, risks map[string]urlcheck.Risk) (Verdict, error) {
	if g == nil || g.apiKey == "" {
		return Verdict{}, errors.New("verdict generator disabled")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cfg := openai.DefaultConfig(g.apiKey)
	if g.baseURL != "" {
		cfg.BaseURL = g.baseURL
	}
	cli := openai.NewClientWithConfig(cfg)

	resp, err := cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(text, risks)},
		},
		Temperature:    0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("verdict completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Verdict{}, errors.New("verdict completion: empty choices")
	}

	var v Verdict
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &v); err != nil {
		return Verdict{}, fmt.Errorf("verdict parse: %w", err)
	}
	if v.Category == "" {
		return Verdict{}, errors.New("verdict parse: missing category")
	}
	return v, nil
}

func buildPrompt(text string, risks map[string]urlcheck.Risk) string {
	var b strings.Builder
	b.WriteString("Analyze the following message for scam intent.\n")
	if len(risks) > 0 {
		b.WriteString("URL reputation findings:\n")
		for u, r := range risks {
			fmt.Fprintf(&b, "- %s: %s\n", u, r)
		}
	}
	b.WriteString("Message:\n")
	b.WriteString(text)
	return b.String()
}
