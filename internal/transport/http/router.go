package http

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// NewRouter mounts the quiz API under apiBase (e.g. "/quiz"), the player
// socket at /ws/play and a health check. CORS is open so a page served from
// elsewhere can call the API.
func NewRouter(apiBase string, api *APIHandler, ws *WSHandler) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	quiz := r.PathPrefix(apiBase).Subrouter()
	quiz.HandleFunc("/all", api.All).Methods(http.MethodGet, http.MethodOptions)
	quiz.HandleFunc("/submit", api.Submit).Methods(http.MethodPost, http.MethodOptions)

	if ws != nil {
		r.HandleFunc("/ws/play", ws.ServeWS).Methods(http.MethodGet)
	}

	return handlers.CORS(
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedOrigins([]string{"*"}),
	)(r)
}
