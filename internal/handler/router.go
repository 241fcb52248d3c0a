package handler

import (
	"net/http"

	"pdf-reader-session/internal/domain"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	sessionHandler *SessionHandler,
	eventsHandler *EventsHandler,
	authMiddleware func(http.Handler) http.Handler,
	logger domain.Logger,
	allowedOrigins []string,
) http.Handler {
	router := mux.NewRouter()
	router.Use(LoggingMiddleware(logger))

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "pdf-reader-session"})
	}).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware)

	api.HandleFunc("/sessions", sessionHandler.OpenSession).Methods("POST")
	api.HandleFunc("/sessions", sessionHandler.ListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", sessionHandler.GetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", sessionHandler.CloseSession).Methods("DELETE")

	// Navigation and view
	api.HandleFunc("/sessions/{id}/page", sessionHandler.ChangePage).Methods("POST")
	api.HandleFunc("/sessions/{id}/jump", sessionHandler.JumpToPage).Methods("POST")
	api.HandleFunc("/sessions/{id}/mode", sessionHandler.SetViewMode).Methods("PUT")
	api.HandleFunc("/sessions/{id}/zoom", sessionHandler.SetZoom).Methods("PUT")
	api.HandleFunc("/sessions/{id}/fit", sessionHandler.ToggleFitToWidth).Methods("POST")
	api.HandleFunc("/sessions/{id}/viewport", sessionHandler.SetViewport).Methods("PUT")
	api.HandleFunc("/sessions/{id}/scroll", sessionHandler.ObserveScroll).Methods("POST")
	api.HandleFunc("/sessions/{id}/visibility", sessionHandler.SetVisibility).Methods("POST")
	api.HandleFunc("/sessions/{id}/input/swipe", sessionHandler.Swipe).Methods("POST")
	api.HandleFunc("/sessions/{id}/input/key", sessionHandler.Key).Methods("POST")

	// Annotations
	api.HandleFunc("/sessions/{id}/bookmarks/{page:[0-9]+}", sessionHandler.ToggleBookmark).Methods("POST")
	api.HandleFunc("/sessions/{id}/notes", sessionHandler.ListNotes).Methods("GET")
	api.HandleFunc("/sessions/{id}/notes", sessionHandler.AddNote).Methods("POST")
	api.HandleFunc("/sessions/{id}/notes/{noteId}", sessionHandler.DeleteNote).Methods("DELETE")

	// Pages
	api.HandleFunc("/sessions/{id}/pages/{page:[0-9]+}/image", sessionHandler.PageImage).Methods("GET")
	api.HandleFunc("/sessions/{id}/pages/{page:[0-9]+}/retry", sessionHandler.RetryPage).Methods("POST")

	api.HandleFunc("/sessions/{id}/events", eventsHandler.Stream).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
