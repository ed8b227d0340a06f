package jobinfra

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/workgate/pkg/errx"
	"github.com/Abraxas-365/workgate/pkg/job"
	"github.com/Abraxas-365/workgate/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresJobStore es la implementación en PostgreSQL de job.Store.
//
// Esquema esperado:
//
//	CREATE TABLE jobs (
//	    id              TEXT PRIMARY KEY,
//	    payment_id      TEXT UNIQUE,
//	    input_data      JSONB NOT NULL,
//	    execution_state TEXT NOT NULL,
//	    payment_state   TEXT NOT NULL,
//	    result          TEXT NOT NULL DEFAULT '',
//	    error_detail    TEXT NOT NULL DEFAULT '',
//	    created_at      TIMESTAMPTZ NOT NULL,
//	    updated_at      TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX idx_jobs_payment_id ON jobs (payment_id);
//
// Toda mutación es un UPDATE condicional sobre una sola fila (compare-and-set):
// una actualización de ejecución y una de pago concurrentes tocan campos
// disjuntos y nunca se pierden mutuamente.
type PostgresJobStore struct {
	db *sqlx.DB
}

// NewPostgresJobStore crea una nueva instancia del store.
func NewPostgresJobStore(db *sqlx.DB) job.Store {
	return &PostgresJobStore{db: db}
}

func (s *PostgresJobStore) Create(ctx context.Context, j *job.Job) error {
	if err := j.Input.Validate(); err != nil {
		return err
	}
	if err := j.CheckInvariants(); err != nil {
		return err
	}

	rec, err := toPersistence(j)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO jobs (
			id, payment_id, input_data, execution_state, payment_state,
			result, error_detail, created_at, updated_at
		) VALUES (
			:id, :payment_id, :input_data, :execution_state, :payment_state,
			:result, :error_detail, :created_at, :updated_at
		)`

	if _, err := s.db.NamedExecContext(ctx, query, rec); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return job.ErrAlreadyAttached().WithDetail("payment_id", j.PaymentID.String()).WithDetail("reason", "payment reference already bound to another job")
		}
		return errx.Wrap(err, "failed to insert job", errx.TypeInternal).
			WithDetail("job_id", j.ID.String())
	}
	return nil
}

func (s *PostgresJobStore) Get(ctx context.Context, id kernel.JobID) (*job.Job, error) {
	var rec jobPersistence
	query := `SELECT * FROM jobs WHERE id = $1`
	if err := s.db.GetContext(ctx, &rec, query, id.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, job.ErrJobNotFound().WithDetail("job_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to get job", errx.TypeInternal).
			WithDetail("job_id", id.String())
	}
	return toDomain(rec)
}

func (s *PostgresJobStore) GetByPaymentID(ctx context.Context, paymentID kernel.PaymentID) (*job.Job, error) {
	var rec jobPersistence
	query := `SELECT * FROM jobs WHERE payment_id = $1`
	if err := s.db.GetContext(ctx, &rec, query, paymentID.String()); err != nil {
		if err == sql.ErrNoRows {
			return nil, job.ErrJobNotFound().WithDetail("payment_id", paymentID.String())
		}
		return nil, errx.Wrap(err, "failed to get job by payment id", errx.TypeInternal).
			WithDetail("payment_id", paymentID.String())
	}
	return toDomain(rec)
}

func (s *PostgresJobStore) AttachPayment(ctx context.Context, id kernel.JobID, paymentID kernel.PaymentID) error {
	if paymentID.IsEmpty() {
		return job.ErrInvalidInput().WithDetail("reason", "payment id is empty")
	}

	// El avance unpaid -> pending_confirmation ocurre en la misma fila y el
	// mismo statement que la escritura del payment_id.
	query := `
		UPDATE jobs SET
			payment_id = $2,
			payment_state = CASE WHEN payment_state = $3 THEN $4 ELSE payment_state END,
			updated_at = $5
		WHERE id = $1 AND payment_id IS NULL`

	result, err := s.db.ExecContext(ctx, query,
		id.String(), paymentID.String(),
		string(job.PaymentUnpaid), string(job.PaymentPendingConfirmation),
		time.Now().UTC(),
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return job.ErrAlreadyAttached().WithDetail("payment_id", paymentID.String()).WithDetail("reason", "payment reference already bound to another job")
		}
		return errx.Wrap(err, "failed to attach payment", errx.TypeInternal).
			WithDetail("job_id", id.String())
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on attach", errx.TypeInternal)
	}
	if rows > 0 {
		return nil
	}

	// Nada actualizado: distinguir job inexistente, re-attach idempotente y
	// conflicto real.
	current, getErr := s.Get(ctx, id)
	if getErr != nil {
		return getErr
	}
	if current.PaymentID == paymentID {
		return nil
	}
	return job.ErrAlreadyAttached().
		WithDetail("job_id", id.String()).
		WithDetail("attached_payment_id", current.PaymentID.String()).
		WithDetail("requested_payment_id", paymentID.String())
}

func (s *PostgresJobStore) UpdateExecutionState(ctx context.Context, id kernel.JobID, to job.ExecutionState, result, errorDetail string) error {
	if !to.Valid() {
		return job.ErrInvalidInput().WithDetail("reason", "unknown execution state: " + string(to))
	}
	if (result != "") != (to == job.ExecutionCompleted) {
		return job.ErrInvalidInput().WithDetail("reason", "result must be set exactly when completing")
	}
	if (errorDetail != "") != (to == job.ExecutionFailed) {
		return job.ErrInvalidInput().WithDetail("reason", "error detail must be set exactly when failing")
	}

	query := `
		UPDATE jobs SET
			execution_state = $2,
			result = $3,
			error_detail = $4,
			updated_at = $5
		WHERE id = $1 AND execution_state = ANY($6)`

	res, err := s.db.ExecContext(ctx, query,
		id.String(), string(to), result, errorDetail, time.Now().UTC(),
		pq.Array(executionStateStrings(job.ExecutionSources(to))),
	)
	if err != nil {
		return errx.Wrap(err, "failed to update execution state", errx.TypeInternal).
			WithDetail("job_id", id.String())
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on execution update", errx.TypeInternal)
	}
	if rows > 0 {
		return nil
	}

	current, getErr := s.Get(ctx, id)
	if getErr != nil {
		return getErr
	}
	return job.ErrInvalidTransition().
		WithDetail("job_id", id.String()).
		WithDetail("axis", "execution").
		WithDetail("from", string(current.ExecutionState)).
		WithDetail("to", string(to))
}

func (s *PostgresJobStore) UpdatePaymentState(ctx context.Context, paymentID kernel.PaymentID, to job.PaymentState) error {
	if !to.Valid() {
		return job.ErrInvalidInput().WithDetail("reason", "unknown payment state: " + string(to))
	}

	query := `
		UPDATE jobs SET
			payment_state = $2,
			updated_at = $3
		WHERE payment_id = $1 AND payment_state = ANY($4)`

	res, err := s.db.ExecContext(ctx, query,
		paymentID.String(), string(to), time.Now().UTC(),
		pq.Array(paymentStateStrings(job.PaymentSources(to))),
	)
	if err != nil {
		return errx.Wrap(err, "failed to update payment state", errx.TypeInternal).
			WithDetail("payment_id", paymentID.String())
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on payment update", errx.TypeInternal)
	}
	if rows > 0 {
		return nil
	}

	current, getErr := s.GetByPaymentID(ctx, paymentID)
	if getErr != nil {
		return getErr
	}
	return classifyPaymentNoop(current, to)
}

// classifyPaymentNoop decide qué devolver cuando el CAS de pago no afectó
// ninguna fila: re-entrega idempotente, outcome terminal en conflicto o
// retroceso inválido.
func classifyPaymentNoop(current *job.Job, to job.PaymentState) error {
	if current.PaymentState == to {
		return nil // idempotent re-delivery
	}
	if current.PaymentState.Terminal() {
		return job.ErrConflictingState().
			WithDetail("payment_id", current.PaymentID.String()).
			WithDetail("current", string(current.PaymentState)).
			WithDetail("event", string(to))
	}
	return job.ErrInvalidTransition().
		WithDetail("payment_id", current.PaymentID.String()).
		WithDetail("axis", "payment").
		WithDetail("from", string(current.PaymentState)).
		WithDetail("to", string(to))
}

// ---------------------------------------------------------------------------
// Persistencia
// ---------------------------------------------------------------------------

type jobPersistence struct {
	ID             string         `db:"id"`
	PaymentID      sql.NullString `db:"payment_id"`
	InputData      []byte         `db:"input_data"`
	ExecutionState string         `db:"execution_state"`
	PaymentState   string         `db:"payment_state"`
	Result         string         `db:"result"`
	ErrorDetail    string         `db:"error_detail"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func toPersistence(j *job.Job) (jobPersistence, error) {
	input, err := json.Marshal(j.Input)
	if err != nil {
		return jobPersistence{}, errx.Wrap(err, "failed to marshal job input", errx.TypeInternal)
	}
	return jobPersistence{
		ID:             j.ID.String(),
		PaymentID:      sql.NullString{String: j.PaymentID.String(), Valid: !j.PaymentID.IsEmpty()},
		InputData:      input,
		ExecutionState: string(j.ExecutionState),
		PaymentState:   string(j.PaymentState),
		Result:         j.Result,
		ErrorDetail:    j.ErrorDetail,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
	}, nil
}

func toDomain(rec jobPersistence) (*job.Job, error) {
	var input job.Input
	if err := json.Unmarshal(rec.InputData, &input); err != nil {
		return nil, errx.Wrap(err, "failed to unmarshal job input", errx.TypeInternal).
			WithDetail("job_id", rec.ID)
	}
	return &job.Job{
		ID:             kernel.ParseJobID(rec.ID),
		Input:          input,
		PaymentID:      kernel.NewPaymentID(rec.PaymentID.String),
		ExecutionState: job.ExecutionState(rec.ExecutionState),
		PaymentState:   job.PaymentState(rec.PaymentState),
		Result:         rec.Result,
		ErrorDetail:    rec.ErrorDetail,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}, nil
}

func executionStateStrings(states []job.ExecutionState) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}

func paymentStateStrings(states []job.PaymentState) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}
