package job

// Visibility classifies what a caller may see of a job's outcome.
type Visibility string

const (
	// VisibilityDisclosed means the result payload is released to the caller.
	VisibilityDisclosed Visibility = "disclosed"
	// VisibilityWithheld means the job has no releasable payload yet: it is
	// still pending/running, or it completed but payment is not confirmed.
	VisibilityWithheld Visibility = "withheld"
	// VisibilityFailed means execution failed; the error detail is always
	// visible since a failed job carries no billable output.
	VisibilityFailed Visibility = "failed"
)

// Disclosure is the externally observable outcome of a job.
type Disclosure struct {
	Visibility  Visibility `json:"visibility"`
	Result      string     `json:"result,omitempty"`
	ErrorDetail string     `json:"error,omitempty"`
}

// Disclose computes the sole externally visible view of a job's payload.
// Result data is released only when execution completed AND payment is
// confirmed; no other code path may return result data from the store.
func Disclose(j *Job) Disclosure {
	switch {
	case j.ExecutionState == ExecutionFailed:
		return Disclosure{Visibility: VisibilityFailed, ErrorDetail: j.ErrorDetail}
	case j.ExecutionState == ExecutionCompleted && j.PaymentState == PaymentConfirmed:
		return Disclosure{Visibility: VisibilityDisclosed, Result: j.Result}
	default:
		return Disclosure{Visibility: VisibilityWithheld}
	}
}
