package execstatic

import (
	"context"

	"github.com/Abraxas-365/workgate/pkg/executor"
)

// Provider is a canned executor.Completer for tests and local development.
// It returns a fixed output, or the configured error.
type Provider struct {
	Output string
	Err    error
}

// New creates a completer that always returns output.
func New(output string) *Provider {
	return &Provider{Output: output}
}

// NewFailing creates a completer that always fails with err.
func NewFailing(err error) *Provider {
	return &Provider{Err: err}
}

func (p *Provider) Complete(ctx context.Context, req executor.CompletionRequest) (string, error) {
	if p.Err != nil {
		return "", p.Err
	}
	return p.Output, nil
}
