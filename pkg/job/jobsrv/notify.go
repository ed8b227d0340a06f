package jobsrv

import (
	"context"

	"github.com/Abraxas-365/workgate/pkg/job"
	"github.com/Abraxas-365/workgate/pkg/notifx"
)

const (
	templateJobCompleted = "job_completed"
	templateJobFailed    = "job_failed"
)

// Notifier emails the operator when jobs reach a terminal execution state.
type Notifier struct {
	client *notifx.Client
	from   string
	to     []string
}

// NewNotifier creates a notifier with the operator recipients baked in.
func NewNotifier(client *notifx.Client, from string, to []string) (*Notifier, error) {
	if err := client.RegisterTemplate(templateJobCompleted,
		`<p>Job <b>{{.JobID}}</b> completed.</p><p>Payment state: {{.PaymentState}}</p>`); err != nil {
		return nil, err
	}
	if err := client.RegisterTemplate(templateJobFailed,
		`<p>Job <b>{{.JobID}}</b> failed.</p><p>{{.Detail}}</p>`); err != nil {
		return nil, err
	}
	return &Notifier{client: client, from: from, to: to}, nil
}

type notifyData struct {
	JobID        string
	PaymentState string
	Detail       string
}

// JobFinished sends the terminal-state notification for a job.
func (n *Notifier) JobFinished(ctx context.Context, j *job.Job, state job.ExecutionState, detail string) error {
	if len(n.to) == 0 {
		return nil
	}

	data := notifyData{
		JobID:        j.ID.String(),
		PaymentState: string(j.PaymentState),
		Detail:       detail,
	}

	template := templateJobCompleted
	subject := "Job completed: " + j.ID.String()
	if state == job.ExecutionFailed {
		template = templateJobFailed
		subject = "Job failed: " + j.ID.String()
	}

	return n.client.SendTemplatedEmail(ctx, template, data, notifx.EmailMessage{
		From:    n.from,
		To:      n.to,
		Subject: subject,
	})
}
