// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/0xcro3dile/campuschat-go/internal/auth"
	"github.com/0xcro3dile/campuschat-go/internal/domain/entities"
	"github.com/0xcro3dile/campuschat-go/internal/domain/usecases"
)

const (
	senderCookie = "campuschat_sender"
	authCookie   = "campuschat_auth"
)

// Server hosts the chat gateway, the dialogue-engine action webhook, and
// the auth surface.
type Server struct {
	chat   *usecases.ChatUseCase
	answer *usecases.AnswerUseCase
	auth   *auth.Service
	addr   string
}

// NewServer creates a new HTTP server.
func NewServer(chat *usecases.ChatUseCase, answer *usecases.AnswerUseCase, authSvc *auth.Service, addr string) *Server {
	return &Server{
		chat:   chat,
		answer: answer,
		auth:   authSvc,
		addr:   addr,
	}
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/webhooks/answer", s.handleAnswerAction)

	mux.HandleFunc("/signup", s.handleSignup)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)
	mux.HandleFunc("/me", s.handleMe)

	mux.HandleFunc("/api/health", s.handleHealth)

	return corsMiddleware(loggingMiddleware(mux))
}

// Start runs the HTTP server until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // the action endpoint waits on embed + complete
	}

	log.Printf("[INFO] campuschat server starting on %s", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	return server.ListenAndServe()
}

// handleChat is the public chat endpoint. It resolves the sender key,
// attaches the logged-in user if any, runs the exchange, and forwards the
// engine payload verbatim.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Message string `json:"message"`
		Sender  string `json:"sender"`
	}
	json.NewDecoder(r.Body).Decode(&req) // a bad body falls through to the empty-message rejection

	senderKey, issued := s.senderKey(r, req.Sender)

	var userID *int64
	if u := s.currentUser(r); u != nil {
		userID = &u.ID
	}

	reply, err := s.chat.Chat(r.Context(), senderKey, req.Message, userID)
	if err != nil {
		s.writeChatError(w, err)
		return
	}

	if issued != nil {
		http.SetCookie(w, issued)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(reply.Raw)
}

// writeChatError maps the domain error taxonomy onto HTTP statuses without
// leaking internals to the caller. The full cause goes to the server log.
func (s *Server) writeChatError(w http.ResponseWriter, err error) {
	if errors.Is(err, entities.ErrEmptyMessage) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	log.Printf("[ERROR] chat: %v", err)

	var de *entities.DialogueError
	if errors.As(err, &de) {
		switch de.Kind {
		case entities.DialogueTimeout:
			writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "dialogue engine timed out"})
		case entities.DialogueProtocol:
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "dialogue engine returned an invalid response"})
		default:
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "dialogue engine is not reachable"})
		}
		return
	}

	var se *entities.StorageError
	if errors.As(err, &se) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database error"})
		return
	}

	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

// botText is the dispatcher-style message shape the dialogue engine expects
// back from an action.
type botText struct {
	Text string `json:"text"`
}

// handleAnswerAction is the endpoint the dialogue engine invokes to run
// the retrieval pipeline. It always answers 200 with a message list: a
// broken upstream degrades to the fixed fallback utterance instead of
// failing the engine's action call.
func (s *Server) handleAnswerAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Sender  string `json:"sender"`
		Message string `json:"message"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	answer, err := s.answer.Answer(r.Context(), req.Message)
	switch {
	case errors.Is(err, entities.ErrEmptyMessage):
		writeJSON(w, http.StatusOK, []botText{{Text: "Please type your question."}})
	case err != nil:
		log.Printf("[ERROR] answer action: %v", err)
		writeJSON(w, http.StatusOK, []botText{{Text: usecases.FallbackUtterance}})
	default:
		writeJSON(w, http.StatusOK, []botText{{Text: answer}})
	}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	_, err := s.auth.Signup(r.Context(), req.Email, req.Password, req.FullName)
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, auth.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case err != nil:
		log.Printf("[ERROR] signup: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database error"})
	default:
		writeJSON(w, http.StatusCreated, map[string]string{"message": "User created"})
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	token, user, err := s.auth.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
	case err != nil:
		log.Printf("[ERROR] login: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database error"})
	default:
		http.SetCookie(w, &http.Cookie{
			Name:     authCookie,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Login successful",
			"user_id": user.ID,
			"role":    user.Role,
		})
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if c, err := r.Cookie(authCookie); err == nil {
		if err := s.auth.Logout(r.Context(), c.Value); err != nil {
			log.Printf("[ERROR] logout: %v", err)
		}
	}
	http.SetCookie(w, &http.Cookie{Name: authCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	if u == nil {
		writeJSON(w, http.StatusOK, map[string]any{"logged_in": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"logged_in": true,
		"user_id":   u.ID,
		"role":      u.Role,
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// senderKey picks the conversation key for this request: an explicit
// sender field wins, then the browser cookie; otherwise a fresh uuid is
// issued and the cookie to set is returned alongside it.
func (s *Server) senderKey(r *http.Request, explicit string) (string, *http.Cookie) {
	if key := strings.TrimSpace(explicit); key != "" {
		return key, nil
	}
	if c, err := r.Cookie(senderCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}
	key := uuid.NewString()
	return key, &http.Cookie{
		Name:     senderCookie,
		Value:    key,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// currentUser resolves the logged-in user from the auth cookie, or nil.
func (s *Server) currentUser(r *http.Request) *auth.User {
	c, err := r.Cookie(authCookie)
	if err != nil {
		return nil
	}
	u, err := s.auth.Resolve(r.Context(), c.Value)
	if err != nil {
		return nil
	}
	return u
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			return
		}
		next.ServeHTTP(w, r)
	})
}
