package executor

import (
	"context"
	"strings"

	"github.com/Abraxas-365/workgate/pkg/job"
	"github.com/Abraxas-365/workgate/pkg/kernel"
	"github.com/Abraxas-365/workgate/pkg/logx"
)

// Input keys the analyst understands.
const (
	InputKeyContractText = "contract_text"
	InputKeyQuestion     = "question"
)

const (
	defaultMaxTokens    = 4096
	maxContractChars    = 400_000
	analystSystemPrompt = `You are a legal analyst specialized in German tenancy law (BGB §§ 535-580a).
You review residential rental contracts clause by clause. For each clause you
assess validity under current case law, flag terms that are void or likely
unenforceable, and explain the tenant's and landlord's position in plain
language. Answer in the language of the contract. Cite the relevant BGB
sections. If text is not a rental contract, say so instead of guessing.`
)

// ContractAnalyst executes rental-contract analysis jobs against a model
// provider.
type ContractAnalyst struct {
	completer   Completer
	maxTokens   int
	temperature float64
}

// AnalystOption configures a ContractAnalyst.
type AnalystOption func(*ContractAnalyst)

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) AnalystOption {
	return func(a *ContractAnalyst) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) AnalystOption {
	return func(a *ContractAnalyst) {
		a.temperature = t
	}
}

// NewContractAnalyst creates an analyst backed by the given provider.
func NewContractAnalyst(completer Completer, opts ...AnalystOption) *ContractAnalyst {
	a := &ContractAnalyst{
		completer:   completer,
		maxTokens:   defaultMaxTokens,
		temperature: 0.2,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Execute runs the analysis for one job.
func (a *ContractAnalyst) Execute(ctx context.Context, id kernel.JobID, input job.Input) (*Result, error) {
	contract, _ := input.Get(InputKeyContractText)
	if strings.TrimSpace(contract) == "" {
		return nil, ErrMissingInput().
			WithDetail("job_id", id.String()).
			WithDetail("key", InputKeyContractText)
	}
	if len(contract) > maxContractChars {
		contract = contract[:maxContractChars]
		logx.Warnf("executor: contract text for job %s truncated to %d chars", id, maxContractChars)
	}

	question, _ := input.Get(InputKeyQuestion)
	output, err := a.completer.Complete(ctx, CompletionRequest{
		System:      analystSystemPrompt,
		Prompt:      buildPrompt(contract, question),
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(output) == "" {
		return nil, ErrEmptyCompletion().WithDetail("job_id", id.String())
	}

	return &Result{Output: output}, nil
}

func buildPrompt(contract, question string) string {
	var b strings.Builder
	b.WriteString("Analyze the following rental contract.\n\n")
	if q := strings.TrimSpace(question); q != "" {
		b.WriteString("Focus on this question: ")
		b.WriteString(q)
		b.WriteString("\n\n")
	}
	b.WriteString("--- CONTRACT ---\n")
	b.WriteString(contract)
	return b.String()
}
