package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"talentlens.io/resume-chat/internal/auth"
	"talentlens.io/resume-chat/internal/config"
	"talentlens.io/resume-chat/internal/store"
)

type stubUserStore struct {
	users  map[string]*store.User // keyed by email
	nextID int
}

func (s *stubUserStore) CreateUser(email, passwordHash string) (*store.User, error) {
	if s.users == nil {
		s.users = map[string]*store.User{}
	}
	s.nextID++
	user := &store.User{ID: fmt.Sprintf("u%d", s.nextID), Email: email, PasswordHash: passwordHash}
	s.users[email] = user
	return user, nil
}

func (s *stubUserStore) GetUserByEmail(email string) (*store.User, error) {
	return s.users[email], nil
}

func (s *stubUserStore) GetUserByID(id string) (*store.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func newAuthTestHandler(t *testing.T) (*APIHandler, *stubUserStore) {
	t.Helper()
	config.AppConfig.JWTSecret = "test-secret"
	users := &stubUserStore{}
	return NewAPIHandler(nil, nil, nil, users, nil, nil), users
}

func signupUser(t *testing.T, h *APIHandler, email, password string) {
	t.Helper()
	w := postJSON(t, h.SignupHandler, "/api/signup", map[string]string{
		"email":    email,
		"password": password,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup failed with %d: %s", w.Code, w.Body.String())
	}
}

func TestSignupHandler(t *testing.T) {
	h, users := newAuthTestHandler(t)

	signupUser(t, h, "jane@example.com", "hunter22")
	if users.users["jane@example.com"].PasswordHash == "hunter22" {
		t.Fatalf("password stored in plaintext")
	}

	w := postJSON(t, h.SignupHandler, "/api/signup", map[string]string{
		"email":    "jane@example.com",
		"password": "different",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", w.Code)
	}

	w = postJSON(t, h.SignupHandler, "/api/signup", map[string]string{"email": "no-password@example.com"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing password, got %d", w.Code)
	}
}

func TestLoginHandler(t *testing.T) {
	h, _ := newAuthTestHandler(t)
	signupUser(t, h, "jane@example.com", "hunter22")

	w := postJSON(t, h.LoginHandler, "/api/login", map[string]string{
		"email":    "jane@example.com",
		"password": "hunter22",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["token"] == "" {
		t.Fatalf("expected a token in the response")
	}
	if userID, err := auth.ValidateJWT(resp["token"]); err != nil || userID == "" {
		t.Fatalf("issued token does not validate: %v", err)
	}

	w = postJSON(t, h.LoginHandler, "/api/login", map[string]string{
		"email":    "jane@example.com",
		"password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", w.Code)
	}

	w = postJSON(t, h.LoginHandler, "/api/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "hunter22",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown user, got %d", w.Code)
	}
}

func TestJWTAuthMiddleware(t *testing.T) {
	h, users := newAuthTestHandler(t)
	user, err := users.CreateUser("jane@example.com", "hash")
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	var seenUserID string
	protected := h.JWTAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = r.Context().Value("userID").(string)
		w.WriteHeader(http.StatusOK)
	}))

	call := func(authHeader string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		return w
	}

	if w := call(""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing header, got %d", w.Code)
	}
	if w := call("Bearer not-a-jwt"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", w.Code)
	}

	// Valid token, but the user is gone from the store.
	orphanToken, err := auth.GenerateJWT("deleted-user")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if w := call("Bearer " + orphanToken); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown user, got %d", w.Code)
	}

	token, err := auth.GenerateJWT(user.ID)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	if w := call("Bearer " + token); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid token, got %d: %s", w.Code, w.Body.String())
	}
	if seenUserID != user.ID {
		t.Fatalf("expected user id %q in request context, got %q", user.ID, seenUserID)
	}
}
