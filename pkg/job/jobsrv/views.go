package jobsrv

import (
	"time"

	"github.com/Abraxas-365/workgate/pkg/job"
)

// StatusView is what callers see when they ask about a job. The result gate
// is already applied: Result is populated only for a completed job whose
// payment is confirmed, Error only for a failed one.
type StatusView struct {
	JobID         string    `json:"job_id"`
	Status        string    `json:"status"`
	PaymentID     string    `json:"payment_id,omitempty"`
	PaymentStatus string    `json:"payment_status"`
	Result        string    `json:"result,omitempty"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewStatusView applies the disclosure rules to a job record.
func NewStatusView(j *job.Job) *StatusView {
	v := &StatusView{
		JobID:         j.ID.String(),
		Status:        string(j.ExecutionState),
		PaymentID:     j.PaymentID.String(),
		PaymentStatus: string(j.PaymentState),
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
	}

	d := job.Disclose(j)
	switch d.Visibility {
	case job.VisibilityDisclosed:
		v.Result = d.Result
	case job.VisibilityFailed:
		v.Error = d.ErrorDetail
	}
	return v
}
