package widgets

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterWidgetRoutes registers the dashboard routes on router. Writes
// require a host token when secret is set.
func RegisterWidgetRoutes(router *mux.Router, handler *Handler, requireToken mux.MiddlewareFunc) {
	api := router.PathPrefix("/api/v1/widget").Subrouter()
	api.Use(logRequests(handler))

	api.HandleFunc("/state", handler.GetState).Methods(http.MethodGet)
	api.HandleFunc("/props", handler.GetProps).Methods(http.MethodGet)

	api.Handle("/selection", requireToken(http.HandlerFunc(handler.SetSelection))).Methods(http.MethodPost)
	api.Handle("/refresh", requireToken(http.HandlerFunc(handler.Refresh))).Methods(http.MethodPost)

	router.HandleFunc("/ws/widget", handler.ServeWS).Methods(http.MethodGet)
}

func logRequests(handler *Handler) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler.logger.WithField("path", r.URL.Path).Debugf("[Widget] %s", r.Method)
			next.ServeHTTP(w, r)
		})
	}
}
