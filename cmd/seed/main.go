package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/rs/zerolog"

	"teacher-directory-backend/internal/config"
	pg "teacher-directory-backend/internal/infra/db/postgres"
	"teacher-directory-backend/internal/usecase"
)

// Mints a batch of UNUSED access codes for distribution to schools.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	count := flag.Int("count", 10, "number of access codes to mint")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	logger := zerolog.Nop()
	codeUC := usecase.NewAccessCodeUseCase(pg.NewAccessCodeRepo(pool), &logger)

	for i := 0; i < *count; i++ {
		code, err := codeUC.Create(ctx, "")
		if err != nil {
			log.Fatalf("create access code: %v", err)
		}
		fmt.Printf("minted: %s (id=%s)\n", code.Code, code.ID)
	}

	fmt.Printf("done: %d access codes minted\n", *count)
}
