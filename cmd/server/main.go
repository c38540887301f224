// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-co-op/gocron/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/r1olo/ase-project/internal/auth"
	"github.com/r1olo/ase-project/internal/catalogue"
	"github.com/r1olo/ase-project/internal/database"
	"github.com/r1olo/ase-project/internal/events"
	"github.com/r1olo/ase-project/internal/game"
	"github.com/r1olo/ase-project/internal/handlers"
	"github.com/r1olo/ase-project/internal/middleware"
	"github.com/r1olo/ase-project/internal/queue"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if priv, pub := os.Getenv("JWT_PRIVATE_KEY_PATH"), os.Getenv("JWT_PUBLIC_KEY_PATH"); priv != "" && pub != "" {
		if err := auth.InitFromPath(priv, pub); err != nil {
			log.Fatalf("failed to load jwt keys: %v", err)
		}
	} else {
		auth.Init()
	}

	// Catalogue collaborator: remote service when configured, the static
	// card set otherwise.
	var cat catalogue.Catalogue
	if url := os.Getenv("CATALOGUE_URL"); url != "" {
		cat = catalogue.NewHTTPClient(url)
	} else {
		logger.Warn("CATALOGUE_URL not set, using the built-in card set")
		cat = catalogue.NewStaticDefault()
	}

	// Match persistence through Postgres when configured.
	var store *database.Store
	var persister game.Persister
	if os.Getenv("PG_HOST") != "" {
		database.ConnectDB()
		if err := database.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("failed to ensure schema: %v", err)
		}
		store = database.NewStore()
		persister = store
	} else {
		logger.Warn("PG_HOST not set, matches will not survive a restart")
	}

	engine := game.NewEngine(cat, persister, logger)

	// Queue coordinator: Redis when configured (multi-instance), in-memory
	// otherwise.
	var coordinator queue.Coordinator
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("failed to connect to redis at %s: %v", addr, err)
		}
		coordinator = queue.NewRedis(client, "matchq")
	} else {
		coordinator = queue.NewMemory()
	}

	// Optional pairing-event publisher.
	var publisher *events.Publisher
	if addr := os.Getenv("KAFKA_ADDR"); addr != "" {
		topic := os.Getenv("KAFKA_TOPIC")
		if topic == "" {
			topic = "match-found"
		}
		p, err := events.NewPublisher(context.Background(), addr, topic)
		if err != nil {
			log.Fatalf("failed to connect to kafka at %s: %v", addr, err)
		}
		publisher = p
		defer publisher.Close()
	}

	srv := handlers.NewServer(coordinator, engine, store, publisher, logger)

	// Background pairing sweep: forms any pair a crashed request left behind.
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("failed to create scheduler: %v", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(2*time.Second),
		gocron.NewTask(func() {
			srv.PairWaitingPlayers(context.Background())
		}),
	)
	if err != nil {
		log.Fatalf("failed to schedule pairing sweep: %v", err)
	}
	sched.Start()
	defer func() { _ = sched.Shutdown() }()

	mux := http.NewServeMux()
	logged := middleware.LogMiddleware(logger)

	mux.Handle("GET /health", handlers.HealthHandler())

	// queue endpoints
	mux.Handle("POST /queue/join", logged(handlers.JoinQueueHandler(srv)))
	mux.Handle("DELETE /queue/leave", logged(handlers.LeaveQueueHandler(srv)))
	mux.Handle("GET /queue/status", logged(handlers.QueueStatusHandler(srv)))

	// match endpoints
	mux.Handle("POST /matches/create", logged(handlers.CreateMatchHandler(srv)))
	mux.Handle("POST /matches/{id}/deck", logged(handlers.SubmitDeckHandler(srv)))
	mux.Handle("POST /matches/{id}/rounds/{round_id}/move", logged(handlers.SubmitMoveHandler(srv)))
	mux.Handle("GET /matches/{id}", logged(handlers.GetMatchHandler(srv)))
	mux.Handle("GET /matches/{id}/round", logged(handlers.GetCurrentRoundHandler(srv)))
	mux.Handle("GET /matches/{id}/rounds/{round_id}", logged(handlers.GetRoundHandler(srv)))
	mux.Handle("GET /matches/{id}/history", logged(handlers.GetHistoryHandler(srv)))

	// projections backed by postgres
	mux.Handle("GET /leaderboard", logged(handlers.LeaderboardHandler(srv)))
	mux.Handle("GET /players/me/history", logged(handlers.PlayerHistoryHandler(srv)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
