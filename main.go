package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/metrics"
	"storefront/internal/notify"
	"storefront/internal/seed"
	"storefront/internal/server"
	"storefront/internal/store"
	"storefront/internal/workflow"
)

func main() {
	config.Load()
	cfg := config.AppEnv
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}()

	db := client.Database(cfg.DBName)
	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureIndexes(db); err != nil {
		log.Printf("[DB] [WARN] index setup incomplete: %v", err)
	}

	helloCtx, cancelHello := context.WithTimeout(context.Background(), 5*time.Second)
	transactional, err := database.SupportsTransactions(helloCtx, client)
	cancelHello()
	switch {
	case err != nil:
		log.Printf("[DB] [WARN] could not detect deployment type, assuming transactions: %v", err)
		transactional = true
	case !transactional && !cfg.IsDevelopment():
		log.Fatal("[DB] [FATAL] MongoDB is standalone; checkout needs a replica set for transactions")
	case !transactional:
		log.Println("[DB] [WARN] standalone MongoDB: transactions disabled, checkout writes are not atomic")
	}

	st := store.NewMongo(db, transactional)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	err = seed.Run(seedCtx, st, seed.Options{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		DemoData:      cfg.SeedDemoData,
	})
	cancelSeed()
	if err != nil {
		log.Printf("[SEED] [ERROR] seeding failed: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	notifiers := notify.Multi{notify.NewLogNotifier(os.Stdout)}
	if brokers := notify.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		kafkaNotifier := notify.NewKafkaNotifier(brokers, cfg.KafkaTopic)
		defer kafkaNotifier.Close()
		notifiers = append(notifiers, kafkaNotifier)
		log.Printf("[NOTIFY] [INFO] publishing order events to %s on %v", cfg.KafkaTopic, brokers)
	}

	shop := workflow.NewShop(st, notifiers, metrics.NewShopMetrics(registry), workflow.Options{
		PublicBaseURL: cfg.PublicBaseURL,
		FrontendURL:   cfg.FrontendURL,
	})

	r := server.NewRouter(server.Deps{
		Store:          st,
		Shop:           shop,
		Issuer:         auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		SecureCookie:   !cfg.IsDevelopment(),
		AllowedOrigins: cfg.AllowedOrigins,
		AllowAll:       cfg.IsDevelopment(),
		ServerMetrics:  metrics.NewServerMetrics(registry),
		Gatherer:       registry,
	})

	log.Printf("[SERVER] [INFO] listening on :%s (%s)", cfg.Port, cfg.Environment)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
