package api

import (
	"net/http"
	"time"

	"quizleague/internal/api/handler"
	"quizleague/internal/api/middleware"
	"quizleague/internal/app/service"
	"quizleague/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	authService *service.AuthService,
	quizService *service.QuizService,
	profileService *service.ProfileService,
	friendService *service.FriendService,
	leagueService *service.LeagueService,
	activityService *service.ActivityService,
	notificationService *service.NotificationService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	metrics := middleware.NewHTTPMetrics("api")
	r.Use(metrics.Instrument)

	// Verifies the Authorization: Bearer token and puts claims in context.
	// Route groups that need auth add middleware.Authenticator on top.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public)
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(publicAuth chi.Router) {
			authHandler.RegisterRoutes(publicAuth)
		})

		quizHandler := handler.NewQuizHandler(quizService)
		v1.Route("/quizzes", quizHandler.RegisterRoutes)

		profileHandler := handler.NewProfileHandler(profileService)
		v1.Route("/profiles", profileHandler.RegisterRoutes)

		friendHandler := handler.NewFriendHandler(friendService)
		v1.Route("/friends", friendHandler.RegisterRoutes)

		leagueHandler := handler.NewLeagueHandler(leagueService)
		v1.Route("/leagues", leagueHandler.RegisterRoutes)

		activityHandler := handler.NewActivityHandler(activityService)
		v1.Route("/activities", activityHandler.RegisterRoutes)

		notificationHandler := handler.NewNotificationHandler(notificationService)
		v1.Route("/notifications", notificationHandler.RegisterRoutes)
	})

	return r
}
