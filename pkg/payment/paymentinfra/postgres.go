package paymentinfra

import (
	"context"
	"time"

	"github.com/Abraxas-365/workgate/pkg/kernel"
	"github.com/Abraxas-365/workgate/pkg/payment"
	"github.com/jmoiron/sqlx"
)

// PostgresUnmatchedStore es la implementación en PostgreSQL de
// payment.UnmatchedStore.
//
// Esquema esperado:
//
//	CREATE TABLE unmatched_payment_events (
//	    id          TEXT PRIMARY KEY,
//	    payment_id  TEXT NOT NULL,
//	    outcome     TEXT NOT NULL,
//	    payload     JSONB,
//	    received_at TIMESTAMPTZ NOT NULL
//	);
type PostgresUnmatchedStore struct {
	db *sqlx.DB
}

// NewPostgresUnmatchedStore crea una nueva instancia del store.
func NewPostgresUnmatchedStore(db *sqlx.DB) payment.UnmatchedStore {
	return &PostgresUnmatchedStore{db: db}
}

type unmatchedPersistence struct {
	ID         string    `db:"id"`
	PaymentID  string    `db:"payment_id"`
	Outcome    string    `db:"outcome"`
	Payload    []byte    `db:"payload"`
	ReceivedAt time.Time `db:"received_at"`
}

func (s *PostgresUnmatchedStore) Record(ctx context.Context, ev payment.UnmatchedEvent) error {
	rec := unmatchedPersistence{
		ID:         ev.ID,
		PaymentID:  ev.PaymentID.String(),
		Outcome:    string(ev.Outcome),
		Payload:    ev.Payload,
		ReceivedAt: ev.ReceivedAt,
	}

	query := `
		INSERT INTO unmatched_payment_events (id, payment_id, outcome, payload, received_at)
		VALUES (:id, :payment_id, :outcome, :payload, :received_at)`

	if _, err := s.db.NamedExecContext(ctx, query, rec); err != nil {
		return payment.ErrStoreFailure().
			WithDetail("payment_id", ev.PaymentID.String()).
			WithDetail("error", err.Error())
	}
	return nil
}

func (s *PostgresUnmatchedStore) List(ctx context.Context, limit int) ([]payment.UnmatchedEvent, error) {
	var recs []unmatchedPersistence
	query := `SELECT * FROM unmatched_payment_events ORDER BY received_at DESC LIMIT $1`
	if err := s.db.SelectContext(ctx, &recs, query, limit); err != nil {
		return nil, payment.ErrStoreFailure().WithDetail("error", err.Error())
	}

	out := make([]payment.UnmatchedEvent, len(recs))
	for i, rec := range recs {
		out[i] = payment.UnmatchedEvent{
			ID:         rec.ID,
			PaymentID:  kernel.NewPaymentID(rec.PaymentID),
			Outcome:    payment.Outcome(rec.Outcome),
			Payload:    rec.Payload,
			ReceivedAt: rec.ReceivedAt,
		}
	}
	return out, nil
}
