package store

import (
	"fmt"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestChunk(t *testing.T, s *SQLiteStore, userID, content string, embedding []float32) DocumentChunk {
	t.Helper()
	chunk := DocumentChunk{
		UserID:    userID,
		FileName:  "resume.pdf",
		Content:   content,
		Embedding: embedding,
	}
	if err := s.InsertChunk(&chunk); err != nil {
		t.Fatalf("failed to insert chunk: %v", err)
	}
	if chunk.ID == "" {
		t.Fatalf("expected InsertChunk to assign an id")
	}
	if chunk.CreatedAt.IsZero() {
		t.Fatalf("expected InsertChunk to assign a timestamp")
	}
	return chunk
}

func TestNearestNeighbors_ScopedToUser(t *testing.T) {
	s := newTestStore(t)

	insertTestChunk(t, s, "user-a", "alice chunk", []float32{1, 0})
	insertTestChunk(t, s, "user-b", "bob chunk", []float32{1, 0})

	results, err := s.NearestNeighbors([]float32{1, 0}, "user-b", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result for user-b, got %d", len(results))
	}
	for _, r := range results {
		if r.Chunk.UserID != "user-b" {
			t.Fatalf("result leaked chunk owned by %s", r.Chunk.UserID)
		}
	}
}

func TestNearestNeighbors_RankedDescending(t *testing.T) {
	s := newTestStore(t)

	insertTestChunk(t, s, "u", "orthogonal", []float32{0, 1})
	insertTestChunk(t, s, "u", "exact", []float32{1, 0})
	insertTestChunk(t, s, "u", "diagonal", []float32{1, 1})

	results, err := s.NearestNeighbors([]float32{1, 0}, "u", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Chunk.Content != "exact" {
		t.Fatalf("expected best match 'exact', got %q", results[0].Chunk.Content)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Fatalf("results not in descending similarity order at %d", i)
		}
	}
}

func TestNearestNeighbors_TruncatesToK(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		insertTestChunk(t, s, "u", "chunk", []float32{1, float32(i)})
	}

	results, err := s.NearestNeighbors([]float32{1, 0}, "u", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestNearestNeighbors_TiesBrokenByChunkID(t *testing.T) {
	s := newTestStore(t)

	a := insertTestChunk(t, s, "u", "same a", []float32{1, 0})
	b := insertTestChunk(t, s, "u", "same b", []float32{1, 0})

	first, err := s.NearestNeighbors([]float32{1, 0}, "u", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.NearestNeighbors([]float32{1, 0}, "u", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first[0].Chunk.ID != second[0].Chunk.ID || first[1].Chunk.ID != second[1].Chunk.ID {
		t.Fatalf("tie ordering not deterministic across queries")
	}
	lowID := a.ID
	if b.ID < lowID {
		lowID = b.ID
	}
	if first[0].Chunk.ID != lowID {
		t.Fatalf("expected tie broken by chunk id, got %s first", first[0].Chunk.ID)
	}
}

func TestNearestNeighbors_EmptyState(t *testing.T) {
	s := newTestStore(t)

	results, err := s.NearestNeighbors([]float32{1, 0}, "nobody", 5)
	if err != nil {
		t.Fatalf("expected no error for user with zero chunks, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty results, got %d", len(results))
	}
}

func TestUsers_CreateAndLookup(t *testing.T) {
	s := newTestStore(t)

	user, err := s.CreateUser("jo@example.com", "hash")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	byEmail, err := s.GetUserByEmail("jo@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byEmail == nil || byEmail.ID != user.ID {
		t.Fatalf("expected to find created user by email")
	}

	missing, err := s.GetUserByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown email")
	}
}

func TestSessions_LatestAndOwnership(t *testing.T) {
	s := newTestStore(t)

	first, err := s.CreateSession("u1", "First")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	second, err := s.CreateSession("u1", "Second")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	latest, err := s.GetLatestSession("u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest == nil {
		t.Fatalf("expected a latest session")
	}
	if latest.ID != second.ID {
		t.Fatalf("expected most recently created session, got %q", latest.Title)
	}

	other, err := s.GetSessionByID(first.ID, "someone-else")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other != nil {
		t.Fatalf("session lookup crossed user boundary")
	}

	none, err := s.GetLatestSession("empty-user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil latest session for user with none")
	}
}

func TestMessages_CreationOrder(t *testing.T) {
	s := newTestStore(t)

	session, err := s.CreateSession("u1", "Chat")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	contents := []string{"first", "second", "third"}
	for i, c := range contents {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		msg := Message{SessionID: session.ID, Role: role, Content: c}
		if err := s.CreateMessage(&msg); err != nil {
			t.Fatalf("failed to create message: %v", err)
		}
	}

	messages, err := s.GetMessagesBySessionID(session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	for i, c := range contents {
		if messages[i].Content != c {
			t.Fatalf("message %d out of order: got %q, want %q", i, messages[i].Content, c)
		}
	}
}

func TestGetLastNMessages_NewestWindowInOrder(t *testing.T) {
	s := newTestStore(t)

	session, err := s.CreateSession("u1", "Chat")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	for i := 0; i < 5; i++ {
		msg := Message{SessionID: session.ID, Role: "user", Content: fmt.Sprintf("message %d", i)}
		if err := s.CreateMessage(&msg); err != nil {
			t.Fatalf("failed to create message: %v", err)
		}
	}

	messages, err := s.GetLastNMessagesBySessionID(session.ID, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	for i, want := range []string{"message 2", "message 3", "message 4"} {
		if messages[i].Content != want {
			t.Fatalf("message %d: got %q, want %q", i, messages[i].Content, want)
		}
	}
}

func TestDeleteDocument_RemovesChunks(t *testing.T) {
	s := newTestStore(t)

	doc, err := s.CreateDocument("u1", "resume.pdf", "u1/123_resume.pdf")
	if err != nil {
		t.Fatalf("failed to create document: %v", err)
	}
	insertTestChunk(t, s, "u1", "chunk one", []float32{1, 0})
	insertTestChunk(t, s, "u1", "chunk two", []float32{0, 1})

	if err := s.DeleteDocument(doc.ID, "u1"); err != nil {
		t.Fatalf("failed to delete document: %v", err)
	}

	results, err := s.NearestNeighbors([]float32{1, 0}, "u1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected chunks removed with document, found %d", len(results))
	}

	docs, err := s.GetDocumentsByUserID("u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no documents left, found %d", len(docs))
	}
}

func TestDeleteDocument_WrongUser(t *testing.T) {
	s := newTestStore(t)

	doc, err := s.CreateDocument("u1", "resume.pdf", "u1/123_resume.pdf")
	if err != nil {
		t.Fatalf("failed to create document: %v", err)
	}
	if err := s.DeleteDocument(doc.ID, "u2"); err == nil {
		t.Fatalf("expected error deleting another user's document")
	}
}
