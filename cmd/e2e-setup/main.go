package main

import (
	"context"
	"log"
	"time"

	"teacher-directory-backend/internal/config"
	"teacher-directory-backend/internal/domain/model"
	"teacher-directory-backend/internal/infra/db/postgres"
	"teacher-directory-backend/internal/infra/redis"

	"github.com/google/uuid"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS schools (
	id                      TEXT PRIMARY KEY,
	email                   TEXT NOT NULL UNIQUE,
	name                    TEXT NOT NULL DEFAULT '',
	contact_name            TEXT NOT NULL DEFAULT '',
	subscription_status     TEXT NOT NULL DEFAULT 'NO_SUBSCRIPTION',
	subscription_plan       TEXT,
	subscription_started_at TIMESTAMPTZ,
	subscription_end_at     TIMESTAMPTZ,
	created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS access_codes (
	id            TEXT PRIMARY KEY,
	code          TEXT NOT NULL UNIQUE,
	status        TEXT NOT NULL DEFAULT 'UNUSED',
	school_id     TEXT REFERENCES schools(id),
	first_used_at TIMESTAMPTZ,
	expires_at    TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_access_codes_school ON access_codes(school_id);

CREATE TABLE IF NOT EXISTS checkout_sessions (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL UNIQUE,
	school_id  TEXT NOT NULL REFERENCES schools(id),
	plan       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	applied_at TIMESTAMPTZ
);
`

// Sets up a clean, predictable database state for manual end-to-end testing:
// schema, a couple of demo schools, and a batch of unused access codes.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg, err := config.LoadConfig("config.yaml", true)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 5)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer redisClient.Close()

	log.Println("--- Starting E2E Environment Setup ---")

	log.Println("[1/4] Wiping Redis cache...")
	if err := redisClient.FlushDB(ctx); err != nil {
		log.Fatalf("failed to flush redis: %v", err)
	}

	log.Println("[2/4] Ensuring schema and wiping existing data...")
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		log.Fatalf("failed to create schema: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE schools, access_codes, checkout_sessions RESTART IDENTITY CASCADE;`); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	log.Println("[3/4] Seeding demo schools...")
	schoolRepo := postgres.NewSchoolRepo(pool)
	for _, seed := range []struct{ email, name string }{
		{"northside@example.com", "Northside Primary"},
		{"riverdale@example.com", "Riverdale High"},
	} {
		s, err := model.NewSchool(uuid.NewString(), seed.email, seed.name)
		if err != nil {
			log.Fatalf("build school %s: %v", seed.email, err)
		}
		if err := schoolRepo.Save(ctx, nil, s); err != nil {
			log.Fatalf("seed school %s: %v", seed.email, err)
		}
		log.Printf("  school %s (%s)", s.Name, s.ID)
	}

	log.Println("[4/4] Seeding access codes...")
	codeRepo := postgres.NewAccessCodeRepo(pool)
	for i := 0; i < 5; i++ {
		ac := &model.AccessCode{
			ID:        uuid.NewString(),
			Code:      uuid.NewString()[:13],
			Status:    model.AccessCodeStatusUnused,
			CreatedAt: time.Now(),
		}
		if err := codeRepo.Save(ctx, nil, ac); err != nil {
			log.Fatalf("seed access code: %v", err)
		}
		log.Printf("  code %s", ac.Code)
	}

	log.Println("--- E2E Environment Setup Complete ---")
}
