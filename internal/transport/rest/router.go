package rest

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"surveypulse/internal/service"
	"surveypulse/internal/transport/rest/handler"
	"surveypulse/internal/transport/rest/middleware"
	"surveypulse/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService // nil leaves survey mutations open
	SurveyService   *service.SurveyService
	ResponseService *service.ResponseService
	StatsService    *service.StatsService
	WSHub           *ws.Hub

	UploadDir      string
	PublicDir      string
	AllowedOrigins string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	surveyHandler := handler.NewSurveyHandler(c.SurveyService)
	responseHandler := handler.NewResponseHandler(c.ResponseService)
	statsHandler := handler.NewStatsHandler(c.StatsService)
	wsHandler := ws.NewHandler(c.WSHub, c.StatsService)

	// Initialize middleware
	var authMW *middleware.AuthMiddleware
	if c.AuthService != nil {
		authMW = middleware.NewAuthMiddleware(c.AuthService)
	}

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.AllowedOrigins))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	if c.AuthService != nil {
		authHandler := handler.NewAuthHandler(c.AuthService)
		api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	}

	// Public routes
	api.HandleFunc("/surveys", surveyHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/surveys/{id}", surveyHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/surveys/{id}/stats", statsHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/surveys/{id}/stats/live", wsHandler.StatsWS).Methods("GET")
	api.HandleFunc("/responses", responseHandler.Submit).Methods("POST", "OPTIONS")

	// Operator routes (require a token when auth is configured)
	operator := api.NewRoute().Subrouter()
	operator.Use(authMW.RequireHost)

	operator.HandleFunc("/surveys", surveyHandler.Create).Methods("POST", "OPTIONS")
	operator.HandleFunc("/surveys/{id}", surveyHandler.Update).Methods("PUT", "OPTIONS")
	operator.HandleFunc("/surveys/{id}", surveyHandler.Delete).Methods("DELETE", "OPTIONS")

	// Stored uploads, read only
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", noListing(http.FileServer(http.Dir(c.UploadDir)))),
	).Methods("GET", "HEAD")

	// Front-end: static files, index.html for everything else
	r.PathPrefix("/").Handler(spaHandler(c.PublicDir)).Methods("GET", "HEAD")

	return middleware.RequestLogger(r)
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
			if allowedMethods == "" {
				allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
			}

			allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
			if allowedHeaders == "" {
				allowedHeaders = "Content-Type, Authorization"
			}

			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// spaHandler serves files from dir and falls back to dir/index.html
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	})
}
