//go:build !integration

package postgres

import (
	"context"
	"time"

	"teacher-directory-backend/internal/domain"
	"teacher-directory-backend/internal/domain/model"
	"teacher-directory-backend/internal/domain/ports/repository"
	red "teacher-directory-backend/internal/infra/redis"

	"github.com/go-redis/redis/v8"
)

// --- Mock Redis client ---

type mockRedisClient struct {
	GetFunc     func(ctx context.Context, key string) (string, error)
	SetFunc     func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc     func(ctx context.Context, keys ...string) error
	FlushDBFunc func(ctx context.Context) error
}

var _ red.RedisClient = (*mockRedisClient)(nil)

func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return "", redis.Nil
}

func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	return nil
}

func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc != nil {
		return m.DelFunc(ctx, keys...)
	}
	return nil
}

func (m *mockRedisClient) FlushDB(ctx context.Context) error {
	if m.FlushDBFunc != nil {
		return m.FlushDBFunc(ctx)
	}
	return nil
}

func (m *mockRedisClient) Close() error { return nil }

// --- Mock inner SchoolRepository ---

type mockInnerSchoolRepo struct {
	SaveFunc               func(ctx context.Context, tx repository.Tx, s *model.School) error
	FindByIDFunc           func(ctx context.Context, tx repository.Tx, id string) (*model.School, error)
	FindByEmailFunc        func(ctx context.Context, tx repository.Tx, email string) (*model.School, error)
	FindByIDForUpdateFunc  func(ctx context.Context, tx repository.Tx, id string) (*model.School, error)
	UpdateSubscriptionFunc func(ctx context.Context, tx repository.Tx, s *model.School) error
}

var _ repository.SchoolRepository = (*mockInnerSchoolRepo)(nil)

func (m *mockInnerSchoolRepo) Save(ctx context.Context, tx repository.Tx, s *model.School) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, s)
	}
	return nil
}

func (m *mockInnerSchoolRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.School, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockInnerSchoolRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.School, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, tx, email)
	}
	return nil, domain.ErrNotFound
}

func (m *mockInnerSchoolRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.School, error) {
	if m.FindByIDForUpdateFunc != nil {
		return m.FindByIDForUpdateFunc(ctx, tx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockInnerSchoolRepo) UpdateSubscription(ctx context.Context, tx repository.Tx, s *model.School) error {
	if m.UpdateSubscriptionFunc != nil {
		return m.UpdateSubscriptionFunc(ctx, tx, s)
	}
	return nil
}

func (m *mockInnerSchoolRepo) CountByStatus(ctx context.Context) (map[model.SubscriptionStatus]int, error) {
	return map[model.SubscriptionStatus]int{}, nil
}
