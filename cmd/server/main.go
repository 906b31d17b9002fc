package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizleague/internal/api"
	"quizleague/internal/app/service"
	"quizleague/internal/app/worker"
	"quizleague/internal/common/security"
	"quizleague/internal/domain/repository"
	"quizleague/internal/platform/config"
	"quizleague/internal/platform/database"
	"quizleague/internal/platform/logger"
	"quizleague/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	config.Load()
	log := logger.New("quizleague")
	log.Info("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	log.Info("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	log.Info("Database connected.")

	// 4. Initialize Redis
	queue.ConnectRedis()
	defer queue.CloseRedis()
	log.Info("Redis connected.")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	profileRepo := repository.NewPgProfileRepository(database.DB)
	quizRepo := repository.NewPgQuizRepository(database.DB)
	friendshipRepo := repository.NewPgFriendshipRepository(database.DB)
	leagueRepo := repository.NewPgLeagueRepository(database.DB)
	activityRepo := repository.NewPgActivityRepository(database.DB)
	notificationRepo := repository.NewPgNotificationRepository(database.DB)
	leaderboardRepo := repository.NewRedisLeaderboardRepository(queue.RDB)

	// 6. Initialize queue plumbing
	statsQueue := queue.NewStatsQueue(queue.RDB)
	events := queue.NewEventBus(queue.RDB)

	// 7. Initialize Services
	authService := service.NewAuthService(userRepo, profileRepo, database.DB)
	quizService := service.NewQuizService(quizRepo, profileRepo, activityRepo, statsQueue, events, database.DB, log)
	profileService := service.NewProfileService(profileRepo, leaderboardRepo, log)
	friendService := service.NewFriendService(friendshipRepo, profileRepo, notificationRepo, events, log)
	leagueService := service.NewLeagueService(leagueRepo, activityRepo, database.DB, log)
	activityService := service.NewActivityService(activityRepo, friendshipRepo, events, log)
	notificationService := service.NewNotificationService(notificationRepo)

	// 8. Initialize Leaderboard Worker (as a goroutine)
	leaderboardWorker := worker.NewLeaderboardWorker(statsQueue, profileRepo, leagueRepo, leaderboardRepo, log)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go leaderboardWorker.Start(workerCtx)

	// 9. Initialize Router & HTTP Server
	router := api.NewRouter(
		authService,
		quizService,
		profileService,
		friendService,
		leagueService,
		activityService,
		notificationService,
	)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 10. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Infof("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", config.AppConfig.APIPort, err)
		}
	}()

	<-stop // Wait for interrupt signal

	log.Info("Shutting down server...")
	workerCancel() // Signal worker to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Info("Server and worker stopped gracefully.")
}
