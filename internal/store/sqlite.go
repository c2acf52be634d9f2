package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"talentlens.io/resume-chat/internal/utils"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY, -- UUID
        email TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS chat_sessions (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        title TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS messages (
        id TEXT PRIMARY KEY, -- UUID
        session_id TEXT NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
        content TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (session_id) REFERENCES chat_sessions (id)
    );

    CREATE TABLE IF NOT EXISTS documents (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        file_name TEXT NOT NULL,
        file_path TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS document_chunks (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        file_name TEXT NOT NULL,
        content TEXT NOT NULL,
        embedding_json TEXT NOT NULL, -- JSON array of float32
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE INDEX IF NOT EXISTS idx_document_chunks_user ON document_chunks (user_id);
    CREATE INDEX IF NOT EXISTS idx_messages_session ON messages (session_id);
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods

func (s *SQLiteStore) CreateUser(email, passwordHash string) (*User, error) {
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.Exec("INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) GetUserByEmail(email string) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, email, password_hash, created_at FROM users WHERE email = ?", email).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) GetUserByID(id string) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, email, password_hash, created_at FROM users WHERE id = ?", id).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// Session methods

func (s *SQLiteStore) CreateSession(userID, title string) (*ChatSession, error) {
	session := ChatSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec("INSERT INTO chat_sessions (id, user_id, title, created_at) VALUES (?, ?, ?, ?)",
		session.ID, session.UserID, session.Title, session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert chat session: %w", err)
	}
	return &session, nil
}

func (s *SQLiteStore) GetSessionByID(sessionID, userID string) (*ChatSession, error) {
	var session ChatSession
	err := s.db.QueryRow("SELECT id, user_id, title, created_at FROM chat_sessions WHERE id = ? AND user_id = ?",
		sessionID, userID).Scan(&session.ID, &session.UserID, &session.Title, &session.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}
	return &session, nil
}

func (s *SQLiteStore) GetSessionsByUserID(userID string) ([]ChatSession, error) {
	rows, err := s.db.Query("SELECT id, user_id, title, created_at FROM chat_sessions WHERE user_id = ? ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat sessions: %w", err)
	}
	defer rows.Close()

	var sessions []ChatSession
	for rows.Next() {
		var session ChatSession
		if err := rows.Scan(&session.ID, &session.UserID, &session.Title, &session.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat session row: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// GetLatestSession returns the most recently created session for a user, or
// nil when the user has none. Used to resume conversation on load.
func (s *SQLiteStore) GetLatestSession(userID string) (*ChatSession, error) {
	var session ChatSession
	err := s.db.QueryRow(
		"SELECT id, user_id, title, created_at FROM chat_sessions WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1",
		userID).Scan(&session.ID, &session.UserID, &session.Title, &session.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest chat session: %w", err)
	}
	return &session, nil
}

func (s *SQLiteStore) UpdateSessionTitle(sessionID, userID, title string) error {
	res, err := s.db.Exec("UPDATE chat_sessions SET title = ? WHERE id = ? AND user_id = ?",
		title, sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to update session title: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("session not found or not owned by user, title not updated")
	}
	return nil
}

// Message methods

func (s *SQLiteStore) CreateMessage(msg *Message) error {
	msg.ID = uuid.NewString()
	msg.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec("INSERT INTO messages (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)",
		msg.ID, msg.SessionID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// GetMessagesBySessionID returns all of a session's messages in creation order.
func (s *SQLiteStore) GetMessagesBySessionID(sessionID string) ([]Message, error) {
	query := "SELECT id, session_id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY created_at ASC, rowid ASC"
	rows, err := s.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// GetLastNMessagesBySessionID returns the newest n messages in chronological
// order. This is the window fed to generation, so the newest message must
// always be included.
func (s *SQLiteStore) GetLastNMessagesBySessionID(sessionID string, n int) ([]Message, error) {
	query := `
        SELECT id, session_id, role, content, created_at
        FROM messages
        WHERE session_id = ?
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?
    `
	rows, err := s.db.Query(query, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Document methods

func (s *SQLiteStore) CreateDocument(userID, fileName, filePath string) (*Document, error) {
	doc := Document{
		ID:        uuid.NewString(),
		UserID:    userID,
		FileName:  fileName,
		FilePath:  filePath,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec("INSERT INTO documents (id, user_id, file_name, file_path, created_at) VALUES (?, ?, ?, ?, ?)",
		doc.ID, doc.UserID, doc.FileName, doc.FilePath, doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}
	return &doc, nil
}

func (s *SQLiteStore) GetDocumentsByUserID(userID string) ([]Document, error) {
	rows, err := s.db.Query("SELECT id, user_id, file_name, file_path, created_at FROM documents WHERE user_id = ? ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.FileName, &doc.FilePath, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) GetDocumentByID(documentID, userID string) (*Document, error) {
	var doc Document
	err := s.db.QueryRow("SELECT id, user_id, file_name, file_path, created_at FROM documents WHERE id = ? AND user_id = ?",
		documentID, userID).Scan(&doc.ID, &doc.UserID, &doc.FileName, &doc.FilePath, &doc.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// DeleteDocument removes the document record and every chunk derived from it.
func (s *SQLiteStore) DeleteDocument(documentID, userID string) error {
	doc, err := s.GetDocumentByID(documentID, userID)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("document not found")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM document_chunks WHERE user_id = ? AND file_name = ?", userID, doc.FileName); err != nil {
		return fmt.Errorf("failed to delete document chunks: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM documents WHERE id = ? AND user_id = ?", documentID, userID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return tx.Commit()
}

// Chunk methods

// InsertChunk assigns an id and timestamp and persists the chunk atomically
// with its embedding. Chunks are never updated after creation.
func (s *SQLiteStore) InsertChunk(chunk *DocumentChunk) error {
	embeddingBytes, err := json.Marshal(chunk.Embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	chunk.ID = uuid.NewString()
	chunk.CreatedAt = time.Now().UTC()

	_, err = s.db.Exec("INSERT INTO document_chunks (id, user_id, file_name, content, embedding_json, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		chunk.ID, chunk.UserID, chunk.FileName, chunk.Content, string(embeddingBytes), chunk.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert document chunk: %w", err)
	}
	return nil
}

func (s *SQLiteStore) getChunksByUserID(userID string) ([]DocumentChunk, error) {
	rows, err := s.db.Query("SELECT id, user_id, file_name, content, embedding_json, created_at FROM document_chunks WHERE user_id = ?",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query document chunks: %w", err)
	}
	defer rows.Close()

	var chunks []DocumentChunk
	for rows.Next() {
		var chunk DocumentChunk
		var embeddingJSON string
		if err := rows.Scan(&chunk.ID, &chunk.UserID, &chunk.FileName, &chunk.Content, &embeddingJSON, &chunk.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document chunk row: %w", err)
		}
		if err := json.Unmarshal([]byte(embeddingJSON), &chunk.Embedding); err != nil {
			log.Printf("Warning: failed to unmarshal embedding for chunk %s: %v. Skipping chunk.", chunk.ID, err)
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// NearestNeighbors returns up to k chunks belonging to userID, ordered by
// descending cosine similarity to the query embedding. Ties are broken by
// chunk id so results are deterministic. Chunks owned by other users are
// never returned; this is the access-control boundary for document content.
func (s *SQLiteStore) NearestNeighbors(queryEmbedding []float32, userID string, k int) ([]ScoredChunk, error) {
	chunks, err := s.getChunksByUserID(userID)
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		similarity, err := utils.CosineSimilarity(queryEmbedding, chunk.Embedding)
		if err != nil {
			log.Printf("Warning: similarity failed for chunk %s: %v. Skipping.", chunk.ID, err)
			continue
		}
		scored = append(scored, ScoredChunk{Chunk: chunk, Similarity: similarity})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Similarity != scored[j].Similarity {
			return scored[i].Similarity > scored[j].Similarity
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})

	if k < 0 {
		k = 0
	}
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}
