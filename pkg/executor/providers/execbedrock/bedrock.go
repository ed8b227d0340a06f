package execbedrock

import (
	"context"

	"github.com/Abraxas-365/workgate/pkg/executor"
	"github.com/Abraxas-365/workgate/pkg/ptrx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const DefaultModel = "anthropic.claude-sonnet-4-20250514-v1:0"

// Provider adapts the Bedrock Converse API to executor.Completer.
type Provider struct {
	client *bedrockruntime.Client
	model  string
}

// New creates a Bedrock-backed completer from an AWS config.
func New(cfg aws.Config, model string) *Provider {
	if model == "" {
		model = DefaultModel
	}
	return &Provider{
		client: bedrockruntime.NewFromConfig(cfg),
		model:  model,
	}
}

func (p *Provider) Complete(ctx context.Context, req executor.CompletionRequest) (string, error) {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(p.model),
		Messages: []types.Message{{
			Role: types.ConversationRoleUser,
			Content: []types.ContentBlock{
				&types.ContentBlockMemberText{Value: req.Prompt},
			},
		}},
	}
	if req.System != "" {
		input.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: req.System},
		}
	}

	config := &types.InferenceConfiguration{}
	hasConfig := false
	if req.MaxTokens > 0 {
		config.MaxTokens = ptrx.Int32(int32(req.MaxTokens))
		hasConfig = true
	}
	if req.Temperature != 0 {
		config.Temperature = ptrx.Float32(float32(req.Temperature))
		hasConfig = true
	}
	if hasConfig {
		input.InferenceConfig = config
	}

	output, err := p.client.Converse(ctx, input)
	if err != nil {
		return "", executor.ErrProviderFailure().
			WithDetail("provider", "bedrock").
			WithDetail("model", p.model).
			WithDetail("cause", err.Error())
	}

	msgOutput, ok := output.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", executor.ErrProviderFailure().
			WithDetail("provider", "bedrock").
			WithDetail("model", p.model).
			WithDetail("cause", "unexpected output type")
	}

	var content string
	for _, block := range msgOutput.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			content += text.Value
		}
	}
	return content, nil
}
