package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"teacher-directory-backend/internal/domain"
	"teacher-directory-backend/internal/domain/model"
	"teacher-directory-backend/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.AccessCodeRepository = (*accessCodeRepo)(nil)

type accessCodeRepo struct {
	pool *pgxpool.Pool
}

func NewAccessCodeRepo(pool *pgxpool.Pool) repository.AccessCodeRepository {
	return &accessCodeRepo{pool: pool}
}

const accessCodeColumns = `id, code, status, school_id, first_used_at, expires_at, created_at`

// Save creates or updates an access code. ON CONFLICT handles both creating a
// new code and recording a redemption or manual expiry.
func (r *accessCodeRepo) Save(ctx context.Context, tx repository.Tx, ac *model.AccessCode) error {
	if ac.ID == "" {
		ac.ID = uuid.NewString()
	}

	const q = `
INSERT INTO access_codes (` + accessCodeColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  school_id = EXCLUDED.school_id,
  first_used_at = EXCLUDED.first_used_at,
  expires_at = EXCLUDED.expires_at;`

	_, err := execSQL(ctx, r.pool, tx, q,
		ac.ID, ac.Code, string(ac.Status), ac.SchoolID, ac.FirstUsedAt, ac.ExpiresAt, ac.CreatedAt,
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

func (r *accessCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.AccessCode, error) {
	const q = `SELECT ` + accessCodeColumns + ` FROM access_codes WHERE code = $1;`
	return r.queryOne(ctx, tx, q, code)
}

// FindByCodeForUpdate takes the row lock that serializes concurrent
// redemptions of the same code.
func (r *accessCodeRepo) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.AccessCode, error) {
	const q = `SELECT ` + accessCodeColumns + ` FROM access_codes WHERE code = $1 FOR UPDATE;`
	return r.queryOne(ctx, tx, q, code)
}

func (r *accessCodeRepo) FindBySchool(ctx context.Context, tx repository.Tx, schoolID string) (*model.AccessCode, error) {
	const q = `SELECT ` + accessCodeColumns + ` FROM access_codes WHERE school_id = $1 LIMIT 1;`
	return r.queryOne(ctx, tx, q, schoolID)
}

func (r *accessCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.AccessCode, error) {
	const q = `SELECT ` + accessCodeColumns + ` FROM access_codes WHERE id = $1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *accessCodeRepo) List(ctx context.Context, tx repository.Tx) ([]*model.AccessCode, error) {
	const q = `SELECT ` + accessCodeColumns + ` FROM access_codes ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.AccessCode
	for rows.Next() {
		ac, err := scanAccessCode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ac)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *accessCodeRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.AccessCode, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanAccessCode(row)
}

func scanAccessCode(row pgx.Row) (*model.AccessCode, error) {
	var ac model.AccessCode
	err := row.Scan(&ac.ID, &ac.Code, &ac.Status, &ac.SchoolID, &ac.FirstUsedAt, &ac.ExpiresAt, &ac.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &ac, nil
}
