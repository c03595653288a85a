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
var _ repository.SchoolRepository = (*schoolRepo)(nil)

type schoolRepo struct {
	pool *pgxpool.Pool
}

func NewSchoolRepo(pool *pgxpool.Pool) *schoolRepo {
	return &schoolRepo{pool: pool}
}

const schoolColumns = `
id, email, name, contact_name,
subscription_status, subscription_plan, subscription_started_at, subscription_end_at,
created_at, updated_at`

func (r *schoolRepo) Save(ctx context.Context, tx repository.Tx, s *model.School) error {
	const q = `
INSERT INTO schools (` + schoolColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  name = EXCLUDED.name,
  contact_name = EXCLUDED.contact_name,
  subscription_status = EXCLUDED.subscription_status,
  subscription_plan = EXCLUDED.subscription_plan,
  subscription_started_at = EXCLUDED.subscription_started_at,
  subscription_end_at = EXCLUDED.subscription_end_at,
  updated_at = NOW();`

	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, model.NormalizeEmail(s.Email), s.Name, s.ContactName,
		string(s.SubscriptionStatus), planParam(s.SubscriptionPlan),
		s.SubscriptionStartedAt, s.SubscriptionEndAt, s.CreatedAt,
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

func (r *schoolRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.School, error) {
	const q = `SELECT ` + schoolColumns + ` FROM schools WHERE id = $1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *schoolRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.School, error) {
	const q = `SELECT ` + schoolColumns + ` FROM schools WHERE email = $1;`
	return r.queryOne(ctx, tx, q, model.NormalizeEmail(email))
}

// FindByIDForUpdate locks the school row until the surrounding transaction
// commits or rolls back.
func (r *schoolRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.School, error) {
	const q = `SELECT ` + schoolColumns + ` FROM schools WHERE id = $1 FOR UPDATE;`
	return r.queryOne(ctx, tx, q, id)
}

// UpdateSubscription writes only the subscription slice of the record.
func (r *schoolRepo) UpdateSubscription(ctx context.Context, tx repository.Tx, s *model.School) error {
	const q = `
UPDATE schools SET
  subscription_status = $2,
  subscription_plan = $3,
  subscription_started_at = $4,
  subscription_end_at = $5,
  updated_at = NOW()
WHERE id = $1;`

	cmd, err := execSQL(ctx, r.pool, tx, q,
		s.ID, string(s.SubscriptionStatus), planParam(s.SubscriptionPlan),
		s.SubscriptionStartedAt, s.SubscriptionEndAt,
	)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *schoolRepo) CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error) {
	const q = `SELECT subscription_status, COUNT(*) FROM schools GROUP BY subscription_status;`
	rows, err := queryRows(ctx, r.pool, nil, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	out := make(map[model.SubscriptionStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[model.SubscriptionStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *schoolRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.School, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanSchool(row)
}

func scanSchool(row pgx.Row) (*model.School, error) {
	var s model.School
	var plan *string
	err := row.Scan(
		&s.ID, &s.Email, &s.Name, &s.ContactName,
		&s.SubscriptionStatus, &plan, &s.SubscriptionStartedAt, &s.SubscriptionEndAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if plan != nil {
		s.SubscriptionPlan = model.Plan(*plan)
	}
	return &s, nil
}

// planParam maps the empty plan to NULL.
func planParam(p model.Plan) *string {
	if p == model.PlanNone {
		return nil
	}
	v := string(p)
	return &v
}
