package core

import (
	"context"

	"talentlens.io/resume-chat/internal/store"
)

// LLM converts text to embedding vectors and prompts to completions. Both
// provider clients (Gemini, OpenAI) implement it; tests use fakes.
type LLM interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
	GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	GetChatCompletion(ctx context.Context, prompt string) (string, error)
	Close() error
}

// ChunkStore is the persistence capability the RAG pipeline needs: insert a
// chunk with its embedding, and nearest-neighbor search scoped to one user.
type ChunkStore interface {
	InsertChunk(chunk *store.DocumentChunk) error
	NearestNeighbors(queryEmbedding []float32, userID string, k int) ([]store.ScoredChunk, error)
}

// SessionStore is the session/message persistence used by ChatService.
type SessionStore interface {
	CreateSession(userID, title string) (*store.ChatSession, error)
	GetSessionByID(sessionID, userID string) (*store.ChatSession, error)
	GetSessionsByUserID(userID string) ([]store.ChatSession, error)
	GetLatestSession(userID string) (*store.ChatSession, error)
	UpdateSessionTitle(sessionID, userID, title string) error
	CreateMessage(msg *store.Message) error
	GetMessagesBySessionID(sessionID string) ([]store.Message, error)
	GetLastNMessagesBySessionID(sessionID string, n int) ([]store.Message, error)
}

// FileStore abstracts the blob storage uploaded documents live in.
type FileStore interface {
	Upload(path string, data []byte) error
	Download(path string) ([]byte, error)
	Delete(path string) error
}

// TextExtractor turns raw document bytes into plain text.
type TextExtractor interface {
	ExtractText(data []byte) (string, error)
}
