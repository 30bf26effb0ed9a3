package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"crowddeck/internal/service"
	"crowddeck/internal/transport/rest/handler"
	"crowddeck/internal/transport/rest/middleware"
	"crowddeck/internal/transport/ws"
)

// Container holds all dependencies for the router.
type Container struct {
	AuthService        *service.AuthService
	SessionService     *service.SessionService
	ParticipantService *service.ParticipantService
	AnswerService      *service.AnswerService
	EngageService      *service.EngageService
	ResultsService     *service.ResultsService
	WSHandler          *ws.Handler
	CORSAllowedOrigins string
}

// NewRouter creates the API router with all endpoints.
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(c.AuthService)
	sessionHandler := handler.NewSessionHandler(c.SessionService, c.ParticipantService)
	questionHandler := handler.NewQuestionHandler(c.SessionService, c.AnswerService)
	resultsHandler := handler.NewResultsHandler(c.SessionService, c.ResultsService, c.EngageService)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	r.Use(corsMiddleware(c.CORSAllowedOrigins))

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/join", sessionHandler.Join).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/code/{code}", sessionHandler.Lookup).Methods("GET", "OPTIONS")

	// WebSocket routes (token in query param)
	v1.HandleFunc("/ws/sessions/{sessionId}/presenter", c.WSHandler.PresenterWS).Methods("GET")
	v1.HandleFunc("/ws/sessions/{sessionId}/channel", c.WSHandler.ParticipantWS).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Presenter routes
	presenterRoutes := v1.NewRoute().Subrouter()
	presenterRoutes.Use(authMW.RequirePresenter)

	presenterRoutes.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	presenterRoutes.HandleFunc("/sessions/{sessionId}", sessionHandler.Get).Methods("GET", "OPTIONS")
	presenterRoutes.HandleFunc("/sessions/{sessionId}/pause", sessionHandler.Pause).Methods("POST", "OPTIONS")
	presenterRoutes.HandleFunc("/sessions/{sessionId}/resume", sessionHandler.Resume).Methods("POST", "OPTIONS")
	presenterRoutes.HandleFunc("/sessions/{sessionId}/end", sessionHandler.End).Methods("POST", "OPTIONS")
	presenterRoutes.HandleFunc("/sessions/{sessionId}/leaderboard", sessionHandler.Leaderboard).Methods("GET", "OPTIONS")
	presenterRoutes.HandleFunc("/sessions/{sessionId}/participants/{participantId}", sessionHandler.RemoveParticipant).Methods("DELETE", "OPTIONS")

	presenterRoutes.HandleFunc("/sessions/{sessionId}/questions", questionHandler.Add).Methods("POST", "OPTIONS")
	presenterRoutes.HandleFunc("/sessions/{sessionId}/questions/{questionId}/activate", questionHandler.Activate).Methods("POST", "OPTIONS")
	presenterRoutes.HandleFunc("/sessions/{sessionId}/questions/{questionId}/lock", questionHandler.Lock).Methods("POST", "OPTIONS")
	presenterRoutes.HandleFunc("/sessions/{sessionId}/questions/{questionId}/unlock", questionHandler.Unlock).Methods("POST", "OPTIONS")
	presenterRoutes.HandleFunc("/sessions/{sessionId}/questions/{questionId}/reveal", questionHandler.Reveal).Methods("POST", "OPTIONS")

	presenterRoutes.HandleFunc("/sessions/{sessionId}/questions/{questionId}/results", resultsHandler.Results).Methods("GET", "OPTIONS")
	presenterRoutes.HandleFunc("/sessions/{sessionId}/engagement", resultsHandler.Engagement).Methods("GET", "OPTIONS")
	presenterRoutes.HandleFunc("/sessions/{sessionId}/export", resultsHandler.Export).Methods("GET", "OPTIONS")
	presenterRoutes.HandleFunc("/sessions/{sessionId}/texts/{textId}/moderate", resultsHandler.ModerateText).Methods("POST", "OPTIONS")

	// Participant routes (channel token)
	participantRoutes := v1.NewRoute().Subrouter()
	participantRoutes.Use(authMW.RequireParticipant)

	participantRoutes.HandleFunc("/sessions/{sessionId}/questions/current", questionHandler.Current).Methods("GET", "OPTIONS")
	participantRoutes.HandleFunc("/sessions/{sessionId}/responses", questionHandler.Submit).Methods("POST", "OPTIONS")
	participantRoutes.HandleFunc("/sessions/{sessionId}/questions/{questionId}/public-results", resultsHandler.PublicResults).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
