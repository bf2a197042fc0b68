package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tazhibayda/workspace-service/internal/config"
	"github.com/tazhibayda/workspace-service/internal/log"
	"github.com/tazhibayda/workspace-service/internal/permission"
	"github.com/tazhibayda/workspace-service/internal/repo"
	"github.com/tazhibayda/workspace-service/internal/seed"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	lg, err := log.Init(cfg.LogProd)
	if err != nil {
		fmt.Fprintln(os.Stderr, "log init:", err)
		return 1
	}
	defer lg.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		lg.Error("mongo connect", zap.Error(err))
		return 1
	}
	defer store.Close(context.Background())

	if err := store.EnsureIndexes(ctx); err != nil {
		lg.Error("ensure indexes", zap.Error(err))
		return 1
	}

	roles, err := seed.New(store, permission.Default(), lg).Run(ctx)
	if err != nil {
		lg.Error("seeding failed", zap.Error(err))
		return 1
	}

	for _, r := range roles {
		log.Infof("- %s: %s", r.Name, strings.Join(r.Permissions, ", "))
	}
	return 0
}
