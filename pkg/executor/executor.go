package executor

import (
	"context"

	"github.com/Abraxas-365/workgate/pkg/job"
	"github.com/Abraxas-365/workgate/pkg/kernel"
)

// Result is the product of a successful execution.
type Result struct {
	Output string
}

// Executor runs a job's work. Execute either produces a result or an error;
// there is no partial outcome, and the caller records whichever it got.
type Executor interface {
	Execute(ctx context.Context, id kernel.JobID, input job.Input) (*Result, error)
}

// Completer is the narrow slice of a model provider the executors need: one
// prompt in, one text completion out. Each provider package adapts its SDK
// to this.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest carries a single completion call.
type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}
