package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/signup", apiHandler.SignupHandler)
		r.Post("/login", apiHandler.LoginHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Pipeline endpoints: callers identify the user in the request body,
		// matching the document-processing and chat contracts.
		r.Post("/chat", apiHandler.ChatHandler)
		r.Post("/process-file", apiHandler.ProcessFileHandler)

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			// Session routes
			r.Post("/sessions", apiHandler.CreateSessionHandler)
			r.Get("/sessions", apiHandler.ListSessionsHandler)
			r.Get("/sessions/latest", apiHandler.LatestSessionHandler)
			r.Patch("/sessions/{sessionID}", apiHandler.RenameSessionHandler)
			r.Get("/sessions/{sessionID}/messages", apiHandler.SessionMessagesHandler)
			r.Post("/sessions/{sessionID}/messages", apiHandler.PostSessionMessageHandler)

			// Document routes
			r.Post("/documents", apiHandler.UploadDocumentHandler)
			r.Get("/documents", apiHandler.ListDocumentsHandler)
			r.Delete("/documents/{documentID}", apiHandler.DeleteDocumentHandler)
		})
	})

	return r
}
