package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"crowddeck/internal/cache"
	"crowddeck/internal/config"
	"crowddeck/internal/repository"
	"crowddeck/internal/service"
	"crowddeck/internal/transport/rest"
	"crowddeck/internal/transport/ws"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(context.Background())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		log.Fatal("Failed to ensure indexes:", err)
	}

	// Redis connection
	redisAddr := strings.TrimPrefix(cfg.RedisURI, "redis://")
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour

	// Repositories
	sessionRepo := repository.NewSessionRepo(db)
	questionRepo := repository.NewQuestionRepo(db)
	participantRepo := repository.NewParticipantRepo(db)
	responseRepo := repository.NewResponseRepo(db)
	wordRepo := repository.NewWordRepo(db)
	textRepo := repository.NewTextRepo(db)
	brainstormRepo := repository.NewBrainstormRepo(db)

	// Caches
	sessionCache := cache.NewSessionCache(rdb, sessionTTL)
	leaderboard := cache.NewLeaderboardCache(rdb)
	counterCache := cache.NewCounterCache(rdb, sessionTTL)

	// Realtime fan-out. The Redis backplane keeps connections on different
	// instances in sync; everything else talks to the hub through the
	// Broadcaster interface.
	hub := ws.NewHub(ws.NewRedisBackplane(rdb))
	go hub.Run(ctx)

	throttle := ws.NewThrottle(cfg.ThrottleLimit, cfg.ThrottleWindow)
	go throttle.Run(ctx)

	// Services
	authSvc := service.NewAuthService(cfg.PresenterUsername, cfg.PresenterPassword, cfg.JWTSecret)
	sessionSvc := service.NewSessionService(sessionRepo, questionRepo, sessionCache, counterCache, leaderboard, sessionTTL)
	participantSvc := service.NewParticipantService(participantRepo, leaderboard, sessionSvc, authSvc)
	answerSvc := service.NewAnswerService(sessionRepo, questionRepo, participantRepo, responseRepo, counterCache, leaderboard, cfg.AnswerTolerance)
	engageSvc := service.NewEngageService(sessionRepo, questionRepo, participantRepo, wordRepo, textRepo, brainstormRepo, counterCache)
	resultsSvc := service.NewResultsService(sessionRepo, questionRepo, participantRepo, responseRepo, wordRepo, textRepo, brainstormRepo)

	sessionSvc.SetBroadcaster(hub)
	participantSvc.SetBroadcaster(hub)
	answerSvc.SetBroadcaster(hub)
	engageSvc.SetBroadcaster(hub)

	// Expiration sweeper
	sweeper := service.NewSweeper(sessionRepo, sessionSvc, cfg.SweepInterval)
	go sweeper.Run(ctx)

	wsHandler := ws.NewHandler(hub, throttle, authSvc, sessionSvc, participantSvc, answerSvc, engageSvc)

	router := rest.NewRouter(&rest.Container{
		AuthService:        authSvc,
		SessionService:     sessionSvc,
		ParticipantService: participantSvc,
		AnswerService:      answerSvc,
		EngageService:      engageSvc,
		ResultsService:     resultsSvc,
		WSHandler:          wsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop the sweeper, hub and throttle before draining connections.
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
