package store

import "time"

type User struct {
	ID           string    `json:"id"` // UUID
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	CreatedAt    time.Time `json:"created_at"`
}

type ChatSession struct {
	ID        string    `json:"id"` // UUID
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID        string    `json:"id"` // UUID
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Document struct {
	ID        string    `json:"id"` // UUID
	UserID    string    `json:"user_id"`
	FileName  string    `json:"file_name"`
	FilePath  string    `json:"file_path"`
	CreatedAt time.Time `json:"created_at"`
}

type DocumentChunk struct {
	ID        string    `json:"id"` // UUID
	UserID    string    `json:"user_id"`
	FileName  string    `json:"file_name"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"` // Stored as a JSON array in the DB, internal
	CreatedAt time.Time `json:"created_at"`
}

// ScoredChunk pairs a chunk with its similarity to a query embedding.
type ScoredChunk struct {
	Chunk      DocumentChunk `json:"chunk"`
	Similarity float32       `json:"similarity"`
}
