package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/tazhibayda/workspace-service/docs"
	"github.com/tazhibayda/workspace-service/internal/config"
	"github.com/tazhibayda/workspace-service/internal/credential"
	api "github.com/tazhibayda/workspace-service/internal/http"
	"github.com/tazhibayda/workspace-service/internal/log"
	"github.com/tazhibayda/workspace-service/internal/metrics"
	"github.com/tazhibayda/workspace-service/internal/oauth"
	"github.com/tazhibayda/workspace-service/internal/permission"
	"github.com/tazhibayda/workspace-service/internal/provision"
	"github.com/tazhibayda/workspace-service/internal/queue"
	"github.com/tazhibayda/workspace-service/internal/repo"
	"github.com/tazhibayda/workspace-service/internal/seed"
	"github.com/tazhibayda/workspace-service/internal/security"
)

const service = "workspace-service"

type store interface {
	provision.Store
	credential.Store
	api.Store
	seed.Store
	EnsureIndexes(ctx context.Context) error
	Close(ctx context.Context) error
}

// @title Workspace API
// @version 0.1.0
// @description Registration, login and workspace provisioning.
// @schemes http https
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	lg, err := log.Init(cfg.LogProd)
	if err != nil {
		panic(err)
	}
	defer lg.Sync()

	tracer.Start(tracer.WithService(service))
	defer tracer.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		lg.Fatal("store init failed", zap.String("store", cfg.Store), zap.Error(err))
	}
	defer st.Close(context.Background())

	if err := st.EnsureIndexes(ctx); err != nil {
		lg.Fatal("ensure indexes", zap.Error(err))
	}

	catalog := permission.Default()
	if cfg.Store == config.StoreMemory {
		if _, err := seed.New(st, catalog, lg).Run(ctx); err != nil {
			lg.Fatal("seed memory store", zap.Error(err))
		}
	}

	var pub queue.Publisher = queue.NewNoop()
	if cfg.RabbitURL != "" {
		if pub, err = queue.NewRabbit(cfg.RabbitURL, cfg.RabbitExchange); err != nil {
			lg.Fatal("rabbit publisher init failed", zap.Error(err))
		}
	}
	defer pub.Close()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	hasher := security.NewBcrypt()
	engine := provision.New(st, catalog,
		provision.WithLogger(lg),
		provision.WithPublisher(pub),
		provision.WithExchange(cfg.RabbitExchange),
		provision.WithHasher(hasher),
	)
	verifier := credential.NewVerifier(st, hasher, lg)

	h := api.NewHandler(st, engine, verifier, catalog, cfg.JWTSecret, cfg.AccessTTL)
	h.Limiter = api.NewRateLimiter(cfg.RateLimitPerMin, time.Minute)
	if cfg.RedisAddr != "" {
		rds := repo.NewRedis(cfg.RedisAddr)
		defer rds.Close()
		if err := rds.Ping(ctx); err != nil {
			lg.Warn("redis unreachable, limiter will fail open", zap.Error(err))
		}
		h.Limiter = &api.RedisLimiter{R: rds, Rate: cfg.RateLimitPerMin, Window: time.Minute}
	}
	if cfg.GoogleEnabled() {
		h.Google = oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI, cfg.OAuthStateSecret)
	}

	docs.SwaggerInfo.BasePath = "/"

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(h, service),
		ReadHeaderTimeout: 5 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.ListenAndServe() }()

	lg.Info("workspace-service listening", zap.String("port", cfg.Port), zap.String("store", cfg.Store))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		lg.Info("shutting down", zap.String("signal", s.String()))
	case err := <-srvErr:
		if !errors.Is(err, http.ErrServerClosed) {
			lg.Error("server error", zap.Error(err))
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("shutdown", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg config.Config) (store, error) {
	if cfg.Store == config.StoreMemory {
		return repo.NewMemory(), nil
	}
	s, err := repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	return s, nil
}
