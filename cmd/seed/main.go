package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"legalmarket-subscription/internal/config"
	"legalmarket-subscription/internal/domain/model"
	pg "legalmarket-subscription/internal/infra/db/postgres"
	"legalmarket-subscription/internal/infra/logging"
	"legalmarket-subscription/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	logger := logging.New(cfg.Log, true)
	planRepo := pg.NewPlanRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	txm := pg.NewTxManager(pool)
	planUC := usecase.NewPlanUseCase(planRepo, subRepo, txm, logger)

	// If plans already exist, do nothing
	plans, err := planUC.List(ctx)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (price=%d¢/mo, limit=%d)\n", p.Name, p.MonthlyPriceCents, p.TokenLimit)
		}
		return
	}

	seed := []struct {
		Name     string
		Cents    int64
		Limit    int64
		Features []string
	}{
		{"Free", 0, 100, []string{"profile", "search"}},
		{"Standard", 1999, 500_000, []string{"profile", "search", "ai-assistant"}},
		{"Premium", 4999, model.TokenUnlimited, []string{"profile", "search", "ai-assistant", "priority-support"}},
	}

	for _, s := range seed {
		p, err := planUC.Create(ctx, s.Name, s.Cents, s.Limit, s.Features)
		if err != nil {
			log.Fatalf("create plan %q: %v", s.Name, err)
		}
		fmt.Printf("seeded: %s (id=%s, price=%d¢/mo, limit=%d)\n", p.Name, p.ID, p.MonthlyPriceCents, p.TokenLimit)
	}

	fmt.Println("Seeding complete.")
}
