package execopenai

import (
	"context"
	"os"

	"github.com/Abraxas-365/workgate/pkg/executor"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const DefaultModel = "gpt-4o"

// Provider adapts the OpenAI chat completions API to executor.Completer.
type Provider struct {
	client openai.Client
	model  string
}

// New creates an OpenAI-backed completer. An empty apiKey falls back to
// OPENAI_API_KEY, an empty model to DefaultModel.
func New(apiKey, model string, opts ...option.RequestOption) *Provider {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if model == "" {
		model = DefaultModel
	}

	options := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Provider{
		client: openai.NewClient(options...),
		model:  model,
	}
}

func (p *Provider) Complete(ctx context.Context, req executor.CompletionRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Prompt),
		},
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature != 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", executor.ErrProviderFailure().
			WithDetail("provider", "openai").
			WithDetail("model", p.model).
			WithDetail("cause", err.Error())
	}
	if len(completion.Choices) == 0 {
		return "", executor.ErrEmptyCompletion().
			WithDetail("provider", "openai").
			WithDetail("model", p.model)
	}

	return completion.Choices[0].Message.Content, nil
}
