package core

import (
	"context"
	"fmt"

	"talentlens.io/resume-chat/internal/store"
)

// ErrSessionNotFound is returned when a session does not exist or belongs to
// a different user.
var ErrSessionNotFound = fmt.Errorf("session not found")

// sessionHistoryLimit caps how many of a session's newest messages are fed to
// generation once conversations grow long.
const sessionHistoryLimit = 50

// ChatService owns chat session and message lifecycle and drives the RAG
// pipeline for persisted conversations.
type ChatService struct {
	sessions     SessionStore
	ragService   *RAGService
	defaultTitle string
}

func NewChatService(sessions SessionStore, rag *RAGService, defaultTitle string) *ChatService {
	if defaultTitle == "" {
		defaultTitle = "New Chat"
	}
	return &ChatService{
		sessions:     sessions,
		ragService:   rag,
		defaultTitle: defaultTitle,
	}
}

// CreateSession starts a new conversation. An empty title gets the configured
// placeholder.
func (s *ChatService) CreateSession(userID, title string) (*store.ChatSession, error) {
	if title == "" {
		title = s.defaultTitle
	}
	session, err := s.sessions.CreateSession(userID, title)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}
	return session, nil
}

func (s *ChatService) ListSessions(userID string) ([]store.ChatSession, error) {
	return s.sessions.GetSessionsByUserID(userID)
}

// LatestSession returns the most recently created session, or nil when the
// user has none yet.
func (s *ChatService) LatestSession(userID string) (*store.ChatSession, error) {
	return s.sessions.GetLatestSession(userID)
}

func (s *ChatService) RenameSession(sessionID, userID, title string) error {
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	return s.sessions.UpdateSessionTitle(sessionID, userID, title)
}

// SessionMessages returns a session's messages in creation order.
func (s *ChatService) SessionMessages(sessionID, userID string) ([]store.Message, error) {
	session, err := s.sessions.GetSessionByID(sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return s.sessions.GetMessagesBySessionID(sessionID)
}

// PostMessage stores the user's message, generates a grounded reply from the
// session history, stores it, and returns the assistant message. If generation
// fails the user message stays persisted and the error is surfaced; the caller
// may resubmit.
func (s *ChatService) PostMessage(ctx context.Context, sessionID, userID, content string) (*store.Message, error) {
	session, err := s.sessions.GetSessionByID(sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	userMsg := store.Message{
		SessionID: sessionID,
		Role:      "user",
		Content:   content,
	}
	if err := s.sessions.CreateMessage(&userMsg); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	history, err := s.sessions.GetLastNMessagesBySessionID(sessionID, sessionHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}

	conversation := make([]ChatMessage, 0, len(history))
	for _, msg := range history {
		conversation = append(conversation, ChatMessage{Role: msg.Role, Content: msg.Content})
	}

	reply, err := s.ragService.GenerateResponse(ctx, conversation, userID)
	if err != nil {
		return nil, err
	}

	assistantMsg := store.Message{
		SessionID: sessionID,
		Role:      "assistant",
		Content:   reply,
	}
	if err := s.sessions.CreateMessage(&assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}

	return &assistantMsg, nil
}
