package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"teacher-directory-backend/internal/domain"
	"teacher-directory-backend/internal/domain/model"
	"teacher-directory-backend/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.CheckoutSessionRepository = (*checkoutSessionRepo)(nil)

type checkoutSessionRepo struct {
	pool *pgxpool.Pool
}

func NewCheckoutSessionRepo(pool *pgxpool.Pool) repository.CheckoutSessionRepository {
	return &checkoutSessionRepo{pool: pool}
}

const checkoutColumns = `id, session_id, school_id, plan, created_at, applied_at`

func (r *checkoutSessionRepo) Save(ctx context.Context, tx repository.Tx, cs *model.CheckoutSession) error {
	// session_id is unique; a concurrent insert of the same session loses
	// cleanly instead of duplicating the ledger row.
	const q = `
INSERT INTO checkout_sessions (` + checkoutColumns + `)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (session_id) DO NOTHING;`

	_, err := execSQL(ctx, r.pool, tx, q,
		cs.ID, cs.SessionID, cs.SchoolID, string(cs.Plan), cs.CreatedAt, cs.AppliedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *checkoutSessionRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.CheckoutSession, error) {
	const q = `SELECT ` + checkoutColumns + ` FROM checkout_sessions WHERE session_id = $1;`
	return r.queryOne(ctx, tx, q, sessionID)
}

func (r *checkoutSessionRepo) FindBySessionIDForUpdate(ctx context.Context, tx repository.Tx, sessionID string) (*model.CheckoutSession, error) {
	const q = `SELECT ` + checkoutColumns + ` FROM checkout_sessions WHERE session_id = $1 FOR UPDATE;`
	return r.queryOne(ctx, tx, q, sessionID)
}

func (r *checkoutSessionRepo) MarkApplied(ctx context.Context, tx repository.Tx, sessionID string) error {
	const q = `UPDATE checkout_sessions SET applied_at = NOW() WHERE session_id = $1 AND applied_at IS NULL;`
	cmd, err := execSQL(ctx, r.pool, tx, q, sessionID)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *checkoutSessionRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.CheckoutSession, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	var cs model.CheckoutSession
	err = row.Scan(&cs.ID, &cs.SessionID, &cs.SchoolID, &cs.Plan, &cs.CreatedAt, &cs.AppliedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &cs, nil
}
