package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"talentlens.io/resume-chat/internal/auth"
	"talentlens.io/resume-chat/internal/core"
	"talentlens.io/resume-chat/internal/store"
	"talentlens.io/resume-chat/internal/utils"
)

const maxUploadBytes = 10 << 20 // 10MB

// UserStore is the identity persistence the handlers need.
type UserStore interface {
	CreateUser(email, passwordHash string) (*store.User, error)
	GetUserByEmail(email string) (*store.User, error)
	GetUserByID(id string) (*store.User, error)
}

// DocumentStore is the document-record persistence the handlers need.
type DocumentStore interface {
	CreateDocument(userID, fileName, filePath string) (*store.Document, error)
	GetDocumentsByUserID(userID string) ([]store.Document, error)
	GetDocumentByID(documentID, userID string) (*store.Document, error)
	DeleteDocument(documentID, userID string) error
}

type APIHandler struct {
	chatService   *core.ChatService
	ragService    *core.RAGService
	ingestService *core.IngestService
	users         UserStore
	documents     DocumentStore
	files         core.FileStore
}

func NewAPIHandler(cs *core.ChatService, rs *core.RAGService, is *core.IngestService, users UserStore, documents DocumentStore, files core.FileStore) *APIHandler {
	return &APIHandler{
		chatService:   cs,
		ragService:    rs,
		ingestService: is,
		users:         users,
		documents:     documents,
		files:         files,
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message, details string) {
	respondJSON(w, status, errorResponse{Error: message, Details: details})
}

// statusForPipelineError distinguishes provider outages from local failures
// without leaking stack traces to the caller.
func statusForPipelineError(err error) int {
	switch {
	case errors.Is(err, core.ErrEmbeddingUnavailable), errors.Is(err, core.ErrGenerationUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrExtractionFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "Authorization header is required", "")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := auth.ValidateJWT(tokenString)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid token", "")
			return
		}

		user, err := h.users.GetUserByID(userID)
		if err != nil {
			log.Printf("Error in JWTAuthMiddleware for user %s: %v", userID, err)
			respondError(w, http.StatusInternalServerError, "Failed to process user identity", "")
			return
		}
		if user == nil {
			respondError(w, http.StatusUnauthorized, "User not found", "")
			return
		}

		ctx := context.WithValue(r.Context(), "userID", user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required", "")
		return
	}

	existing, err := h.users.GetUserByEmail(req.Email)
	if err != nil {
		log.Printf("Error checking existing user %s: %v", req.Email, err)
		respondError(w, http.StatusInternalServerError, "Failed to create user", "")
		return
	}
	if existing != nil {
		respondError(w, http.StatusConflict, "User already exists", "")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password for user %s: %v", req.Email, err)
		respondError(w, http.StatusInternalServerError, "Failed to process password", "")
		return
	}

	user, err := h.users.CreateUser(req.Email, hashedPassword)
	if err != nil {
		log.Printf("Error creating user %s: %v", req.Email, err)
		respondError(w, http.StatusInternalServerError, "Failed to create user", "")
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required", "")
		return
	}

	user, err := h.users.GetUserByEmail(req.Email)
	if err != nil {
		log.Printf("Error getting user %s: %v", req.Email, err)
		respondError(w, http.StatusUnauthorized, "Invalid credentials", "")
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials", "")
		return
	}

	token, err := auth.GenerateJWT(user.ID)
	if err != nil {
		log.Printf("Error generating JWT for user %s: %v", req.Email, err)
		respondError(w, http.StatusInternalServerError, "Failed to generate token", "")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

type ChatRequest struct {
	Messages []core.ChatMessage `json:"messages"`
	UserID   string             `json:"userId"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

// ChatHandler is the stateless query endpoint: retrieval plus generation over
// the messages supplied in the request, nothing persisted.
func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if len(req.Messages) == 0 || req.UserID == "" {
		respondError(w, http.StatusBadRequest, "Missing required fields", "")
		return
	}

	reply, err := h.ragService.GenerateResponse(r.Context(), req.Messages, req.UserID)
	if err != nil {
		log.Printf("Chat error for user %s: %v", req.UserID, err)
		respondError(w, statusForPipelineError(err), "AI failed to generate response", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, ChatResponse{Reply: reply})
}

type ProcessFileRequest struct {
	FilePath string `json:"filePath"`
	FileName string `json:"fileName"`
	UserID   string `json:"userId"`
}

type ProcessFileResponse struct {
	Success         bool `json:"success"`
	ChunksProcessed int  `json:"chunksProcessed"`
}

type processFileError struct {
	Error           string `json:"error"`
	Details         string `json:"details,omitempty"`
	ChunksProcessed int    `json:"chunksProcessed"`
}

// ProcessFileHandler runs the ingestion pipeline. On failure the response
// still carries the number of chunks already persisted, since a mid-pipeline
// error leaves earlier chunks in place.
func (h *APIHandler) ProcessFileHandler(w http.ResponseWriter, r *http.Request) {
	var req ProcessFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.FilePath == "" || req.FileName == "" || req.UserID == "" {
		respondError(w, http.StatusBadRequest, "Missing required fields", "")
		return
	}

	processed, err := h.ingestService.ProcessDocument(r.Context(), req.FilePath, req.FileName, req.UserID)
	if err != nil {
		log.Printf("Processing error for user %s, file %s: %v", req.UserID, req.FileName, err)
		respondJSON(w, statusForPipelineError(err), processFileError{
			Error:           "Processing failed",
			Details:         err.Error(),
			ChunksProcessed: processed,
		})
		return
	}

	respondJSON(w, http.StatusOK, ProcessFileResponse{Success: true, ChunksProcessed: processed})
}

type CreateSessionRequest struct {
	Title string `json:"title"`
}

func (h *APIHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)

	var req CreateSessionRequest
	if r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			respondError(w, http.StatusBadRequest, "Invalid request body", err.Error())
			return
		}
	}

	session, err := h.chatService.CreateSession(userID, req.Title)
	if err != nil {
		log.Printf("Error creating session for user %s: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Failed to create session", "")
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (h *APIHandler) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)

	sessions, err := h.chatService.ListSessions(userID)
	if err != nil {
		log.Printf("Error listing sessions for user %s: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Failed to list sessions", "")
		return
	}
	if sessions == nil {
		sessions = []store.ChatSession{}
	}
	respondJSON(w, http.StatusOK, sessions)
}

func (h *APIHandler) LatestSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)

	session, err := h.chatService.LatestSession(userID)
	if err != nil {
		log.Printf("Error getting latest session for user %s: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Failed to get latest session", "")
		return
	}
	if session == nil {
		respondError(w, http.StatusNotFound, "No sessions yet", "")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

type RenameSessionRequest struct {
	Title string `json:"title"`
}

func (h *APIHandler) RenameSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)
	sessionID := chi.URLParam(r, "sessionID")

	var req RenameSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "Title cannot be empty", "")
		return
	}

	if err := h.chatService.RenameSession(sessionID, userID, req.Title); err != nil {
		respondError(w, http.StatusNotFound, "Session not found", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) SessionMessagesHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)
	sessionID := chi.URLParam(r, "sessionID")

	messages, err := h.chatService.SessionMessages(sessionID, userID)
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "Session not found", "")
			return
		}
		log.Printf("Error getting messages for user %s, session %s: %v", userID, sessionID, err)
		respondError(w, http.StatusInternalServerError, "Failed to get messages", "")
		return
	}
	if messages == nil {
		messages = []store.Message{}
	}
	respondJSON(w, http.StatusOK, messages)
}

type PostMessageRequest struct {
	Content string `json:"content"`
}

func (h *APIHandler) PostSessionMessageHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)
	sessionID := chi.URLParam(r, "sessionID")

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.Content == "" {
		respondError(w, http.StatusBadRequest, "Message content cannot be empty", "")
		return
	}

	assistantMsg, err := h.chatService.PostMessage(r.Context(), sessionID, userID, req.Content)
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "Session not found", "")
			return
		}
		log.Printf("Error posting message for user %s, session %s: %v", userID, sessionID, err)
		respondError(w, statusForPipelineError(err), "AI failed to generate response", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, assistantMsg)
}

type UploadDocumentResponse struct {
	Document *store.Document `json:"document"`
}

// UploadDocumentHandler saves the raw file to blob storage and records the
// document. Chunking and embedding happen in a follow-up /process-file call.
func (h *APIHandler) UploadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Failed to parse form", err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing file field", "")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read upload", "")
		return
	}

	filePath := utils.GenerateFilePath(userID, header.Filename)
	if err := h.files.Upload(filePath, data); err != nil {
		log.Printf("Error storing upload for user %s: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Failed to store file", "")
		return
	}

	doc, err := h.documents.CreateDocument(userID, header.Filename, filePath)
	if err != nil {
		log.Printf("Error recording document for user %s: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Failed to record document", "")
		return
	}

	respondJSON(w, http.StatusCreated, UploadDocumentResponse{Document: doc})
}

func (h *APIHandler) ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)

	docs, err := h.documents.GetDocumentsByUserID(userID)
	if err != nil {
		log.Printf("Error listing documents for user %s: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Failed to list documents", "")
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	respondJSON(w, http.StatusOK, docs)
}

// DeleteDocumentHandler removes the record, its chunks, and the stored blob.
func (h *APIHandler) DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(string)
	documentID := chi.URLParam(r, "documentID")

	doc, err := h.documents.GetDocumentByID(documentID, userID)
	if err != nil {
		log.Printf("Error looking up document %s for user %s: %v", documentID, userID, err)
		respondError(w, http.StatusInternalServerError, "Failed to delete document", "")
		return
	}
	if doc == nil {
		respondError(w, http.StatusNotFound, "Document not found", "")
		return
	}

	if err := h.documents.DeleteDocument(documentID, userID); err != nil {
		log.Printf("Error deleting document %s for user %s: %v", documentID, userID, err)
		respondError(w, http.StatusInternalServerError, "Failed to delete document", "")
		return
	}
	if err := h.files.Delete(doc.FilePath); err != nil {
		// Record and chunks are gone; an orphaned blob is not worth failing over.
		log.Printf("Warning: failed to delete blob %s: %v", doc.FilePath, err)
	}
	w.WriteHeader(http.StatusNoContent)
}
