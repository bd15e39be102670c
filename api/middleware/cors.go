package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var localOrigins = []string{
	"http://localhost:3000", // waiter terminal dev server
	"http://localhost:5173", // admin dashboard dev server
}

// CORS returns middleware allowing the configured front-of-house and admin
// origins. An empty list falls back to the local dev servers.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = localOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", IdempotencyHeader, RequestIDHeader, "X-Requested-With"},
		ExposedHeaders:   []string{RequestIDHeader, "Idempotent-Replay"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler
}
