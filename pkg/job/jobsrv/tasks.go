package jobsrv

import (
	"context"
	"encoding/json"

	"github.com/Abraxas-365/workgate/pkg/asyncx"
	"github.com/Abraxas-365/workgate/pkg/executor"
	"github.com/Abraxas-365/workgate/pkg/job"
	"github.com/Abraxas-365/workgate/pkg/kernel"
	"github.com/Abraxas-365/workgate/pkg/logx"
	"github.com/Abraxas-365/workgate/pkg/queuex"
)

// TaskTypeExecuteJob is the task type for job execution.
const TaskTypeExecuteJob = "job.execute"

// ExecuteTaskPayload is the payload carried by an execution task.
type ExecuteTaskPayload struct {
	JobID string `json:"job_id"`
}

func (s *Service) dispatch(ctx context.Context, id kernel.JobID) error {
	payload, err := json.Marshal(ExecuteTaskPayload{JobID: id.String()})
	if err != nil {
		return err
	}
	_, err = s.queue.Enqueue(ctx, queuex.Task{
		Type:    TaskTypeExecuteJob,
		Payload: payload,
	})
	return err
}

// Runner consumes execution tasks and drives jobs through their execution
// axis. It is the only writer of running/completed/failed states.
type Runner struct {
	store    job.Store
	executor executor.Executor
	vault    *ArtifactVault
	notifier *Notifier
}

// RunnerOption configures optional runner collaborators.
type RunnerOption func(*Runner)

// RunnerWithArtifactVault rehydrates offloaded input values before execution.
func RunnerWithArtifactVault(v *ArtifactVault) RunnerOption {
	return func(r *Runner) { r.vault = v }
}

// RunnerWithNotifier sends a notification when a job reaches a terminal
// execution state.
func RunnerWithNotifier(n *Notifier) RunnerOption {
	return func(r *Runner) { r.notifier = n }
}

// NewRunner creates an execution runner.
func NewRunner(store job.Store, exec executor.Executor, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:    store,
		executor: exec,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register wires the execution handler into the worker client.
func (r *Runner) Register(client *queuex.Client) {
	client.Register(TaskTypeExecuteJob, r.handle)
}

func (r *Runner) handle(ctx context.Context, task *queuex.TaskInfo) error {
	var payload ExecuteTaskPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return err
	}
	return r.Run(ctx, kernel.ParseJobID(payload.JobID))
}

// Run executes a single job. Duplicate dispatches are harmless: whoever
// loses the pending->running transition walks away.
func (r *Runner) Run(ctx context.Context, id kernel.JobID) error {
	j, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if j.ExecutionState.Terminal() {
		return nil
	}

	if err := r.store.UpdateExecutionState(ctx, id, job.ExecutionRunning, "", ""); err != nil {
		if job.IsCode(err, job.CodeInvalidTransition) {
			logx.Infof("jobsrv: job %s already claimed, skipping", id)
			return nil
		}
		return err
	}

	input := j.Input
	if r.vault != nil {
		hydrated, err := r.vault.Hydrate(ctx, input)
		if err != nil {
			return r.fail(ctx, j, "could not load offloaded input: "+err.Error())
		}
		input = hydrated
	}

	result, err := r.executor.Execute(ctx, id, input)
	if err != nil {
		return r.fail(ctx, j, err.Error())
	}
	return r.complete(ctx, j, result.Output)
}

func (r *Runner) complete(ctx context.Context, j *job.Job, output string) error {
	if err := r.store.UpdateExecutionState(ctx, j.ID, job.ExecutionCompleted, output, ""); err != nil {
		return err
	}
	logx.WithField("job_id", j.ID.String()).Info("jobsrv: job completed")
	r.notify(ctx, j, job.ExecutionCompleted, "")
	return nil
}

func (r *Runner) fail(ctx context.Context, j *job.Job, detail string) error {
	if err := r.store.UpdateExecutionState(ctx, j.ID, job.ExecutionFailed, "", detail); err != nil {
		return err
	}
	logx.WithField("job_id", j.ID.String()).Warnf("jobsrv: job failed: %s", detail)
	r.notify(ctx, j, job.ExecutionFailed, detail)
	return nil
}

// notify sends the terminal-state mail off the worker's critical path.
func (r *Runner) notify(ctx context.Context, j *job.Job, state job.ExecutionState, detail string) {
	if r.notifier == nil {
		return
	}
	asyncx.Do(func() {
		if err := r.notifier.JobFinished(context.WithoutCancel(ctx), j, state, detail); err != nil {
			logx.WithError(err).Warnf("jobsrv: could not send notification for %s", j.ID)
		}
	})
}
