package execanthropic

import (
	"context"

	"github.com/Abraxas-365/workgate/pkg/executor"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
)

// Provider adapts the Anthropic messages API to executor.Completer.
type Provider struct {
	client anthropic.Client
	model  anthropic.Model
}

// New creates an Anthropic-backed completer. An empty apiKey falls back to
// the SDK's environment lookup, an empty model to DefaultModel.
func New(apiKey, model string) *Provider {
	var options []option.RequestOption
	if apiKey != "" {
		options = append(options, option.WithAPIKey(apiKey))
	}
	if model == "" {
		model = DefaultModel
	}

	return &Provider{
		client: anthropic.NewClient(options...),
		model:  anthropic.Model(model),
	}
}

func (p *Provider) Complete(ctx context.Context, req executor.CompletionRequest) (string, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", executor.ErrProviderFailure().
			WithDetail("provider", "anthropic").
			WithDetail("model", string(p.model)).
			WithDetail("cause", err.Error())
	}

	var content string
	for _, block := range message.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	return content, nil
}
