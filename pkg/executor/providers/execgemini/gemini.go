package execgemini

import (
	"context"

	"github.com/Abraxas-365/workgate/pkg/executor"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.0-flash"

// Provider adapts the Gemini API to executor.Completer.
type Provider struct {
	client *genai.Client
	model  string
}

// New creates a Gemini-backed completer. An empty apiKey falls back to the
// SDK's environment lookup, an empty model to DefaultModel.
func New(ctx context.Context, apiKey, model string) (*Provider, error) {
	config := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	if apiKey != "" {
		config.APIKey = apiKey
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, executor.ErrProviderFailure().
			WithDetail("provider", "gemini").
			WithDetail("cause", err.Error())
	}

	return &Provider{client: client, model: model}, nil
}

func (p *Provider) Complete(ctx context.Context, req executor.CompletionRequest) (string, error) {
	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{genai.NewPartFromText(req.Prompt)},
	}}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.System)},
		}
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature != 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return "", executor.ErrProviderFailure().
			WithDetail("provider", "gemini").
			WithDetail("model", p.model).
			WithDetail("cause", err.Error())
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", executor.ErrEmptyCompletion().
			WithDetail("provider", "gemini").
			WithDetail("model", p.model)
	}

	var content string
	for _, part := range result.Candidates[0].Content.Parts {
		content += part.Text
	}
	return content, nil
}
