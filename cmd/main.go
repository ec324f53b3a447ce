package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopengine/order-service/internal/app"
	"github.com/shopengine/order-service/internal/auth"
	"github.com/shopengine/order-service/internal/config"
	"github.com/shopengine/order-service/internal/entities"
	"github.com/shopengine/order-service/internal/events"
	"github.com/shopengine/order-service/internal/handler"
	"github.com/shopengine/order-service/internal/postgres"
	"github.com/shopengine/order-service/internal/repo"
	"github.com/shopengine/order-service/internal/service"
	"github.com/shopengine/order-service/pkg/cache"
	"github.com/shopengine/order-service/pkg/trm"

	"github.com/joho/godotenv"
)

// @title           Storefront Order Engine API
// @version         1.0
// @description     Order transaction engine HTTP API
func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	defaultStatus, err := entities.ParseStatus(conf.Orders.DefaultStatus)
	panicIfErr("invalid default order status", err)

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	orderRepo := repo.NewPostgresRepo(db)
	txManager := trm.NewManager(db, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	orderCache := cache.NewLRUCache(conf.Cache.Capacity, conf.Cache.TTL)
	publisher := events.NewKafkaPublisher(logger, conf.Kafka)

	orderService := service.NewOrderService(logger, txManager, orderRepo, orderCache, publisher, defaultStatus)

	verifier, err := auth.NewPasetoVerifier(conf.Auth.PasetoKey)
	panicIfErr("failed to init token verifier", err)

	httpHandler := handler.NewHTTPHandler(logger, orderService)

	app := app.New(logger, conf, verifier)

	app.SetHTTPHandlers(httpHandler)
	app.SetStarters(orderCache, warmUpAdapter{svc: orderService, count: conf.Orders.WarmUpCount})
	app.SetClosers(publisher)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	panicIfErr("failed to start app", app.Start(ctx))
	<-ctx.Done()
	panicIfErr("failed to stop app", app.Stop())
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}

type warmUpper interface {
	WarmUpCache(ctx context.Context, count int) error
}

type warmUpAdapter struct {
	svc   warmUpper
	count int
}

func (a warmUpAdapter) Start(ctx context.Context) error {
	return a.svc.WarmUpCache(ctx, a.count)
}
