package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Vasu1712/sceneitem-widget/internal/logging"
)

// CORS allows the dashboard at allowedOrigin to call the API.
func CORS(allowedOrigin string) mux.MiddlewareFunc {
	logger := logging.NewLogger("cors")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Access-Control-Allow-Headers, Authorization, X-Requested-With")
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				logger.WithField("path", r.URL.Path).Debug("Handled preflight request")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
