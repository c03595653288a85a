package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"teacher-directory-backend/internal/domain/model"
	"teacher-directory-backend/internal/domain/ports/repository"
	"teacher-directory-backend/internal/infra/metrics"
	red "teacher-directory-backend/internal/infra/redis"
)

var _ repository.SchoolRepository = (*schoolRepoCacheDecorator)(nil)

// schoolRepoCacheDecorator caches school reads in Redis. Entitlement checks
// hit FindByID on every gated request, so this keeps the hot path off the
// database. Locked reads and writes always go to the inner repo; every write
// invalidates both keys for the school.
type schoolRepoCacheDecorator struct {
	inner repository.SchoolRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewSchoolRepoCacheDecorator(inner repository.SchoolRepository, cache red.RedisClient, ttl time.Duration) repository.SchoolRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &schoolRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *schoolRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, s *model.School) error {
	d.invalidate(ctx, s)
	return d.inner.Save(ctx, tx, s)
}

func (d *schoolRepoCacheDecorator) UpdateSubscription(ctx context.Context, tx repository.Tx, s *model.School) error {
	d.invalidate(ctx, s)
	return d.inner.UpdateSubscription(ctx, tx, s)
}

func (d *schoolRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.School, error) {
	key := fmt.Sprintf("school:id:%s", id)
	val, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		metrics.IncCacheRequest("school", "hit")
		var s model.School
		if json.Unmarshal([]byte(val), &s) == nil {
			return &s, nil
		}
	case errors.Is(err, red.Nil):
		metrics.IncCacheRequest("school", "miss")
	default:
		// Cache outage is not fatal to reads; serve from the database.
		metrics.IncCacheRequest("school", "error")
	}

	s, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	d.fill(ctx, s)
	return s, nil
}

func (d *schoolRepoCacheDecorator) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.School, error) {
	key := fmt.Sprintf("school:email:%s", model.NormalizeEmail(email))
	val, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		metrics.IncCacheRequest("school", "hit")
		var s model.School
		if json.Unmarshal([]byte(val), &s) == nil {
			return &s, nil
		}
	case errors.Is(err, red.Nil):
		metrics.IncCacheRequest("school", "miss")
	default:
		metrics.IncCacheRequest("school", "error")
	}

	s, err := d.inner.FindByEmail(ctx, tx, email)
	if err != nil {
		return nil, err
	}
	d.fill(ctx, s)
	return s, nil
}

// FindByIDForUpdate must observe the row under its lock; never served from cache.
func (d *schoolRepoCacheDecorator) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.School, error) {
	return d.inner.FindByIDForUpdate(ctx, tx, id)
}

func (d *schoolRepoCacheDecorator) CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error) {
	return d.inner.CountByStatus(ctx)
}

func (d *schoolRepoCacheDecorator) fill(ctx context.Context, s *model.School) {
	if s == nil {
		return
	}
	bytes, err := json.Marshal(s)
	if err != nil {
		return
	}
	_ = d.cache.Set(ctx, fmt.Sprintf("school:id:%s", s.ID), bytes, d.ttl)
	_ = d.cache.Set(ctx, fmt.Sprintf("school:email:%s", s.Email), bytes, d.ttl)
}

func (d *schoolRepoCacheDecorator) invalidate(ctx context.Context, s *model.School) {
	_ = d.cache.Del(ctx,
		fmt.Sprintf("school:id:%s", s.ID),
		fmt.Sprintf("school:email:%s", s.Email),
	)
}
