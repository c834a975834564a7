// Package infra provides in-process stand-ins for the systems the harness
// talks to: an API with token login and an ssh host.
package infra

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// APIServer is a mock API issuing RS256 tokens on POST /login and
// requiring them on every other route.
//
//	POST /login      {"username","password"} -> {"code":0,"data":{"token":...}}
//	GET  /me         -> {"code":0,"data":{"username":...}}
//	GET  /flaky      -> 500 for the first FailFirst hits, then 200
//	POST /echo       -> the request body
type APIServer struct {
	Username  string
	Password  string
	FailFirst int32

	server     *http.Server
	privateKey *rsa.PrivateKey
	baseURL    string
	flakyHits  atomic.Int32
	hits       atomic.Int32
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

// NewAPIServer starts the server on a random local port.
func NewAPIServer(username, password string) (*APIServer, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generating RSA key: %w", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listening: %w", err)
	}

	a := &APIServer{
		Username:   username,
		Password:   password,
		privateKey: privateKey,
		baseURL:    fmt.Sprintf("http://%s", listener.Addr().String()),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login", a.handleLogin)
	mux.HandleFunc("/me", a.authenticated(a.handleMe))
	mux.HandleFunc("/flaky", a.authenticated(a.handleFlaky))
	mux.HandleFunc("/echo", a.authenticated(a.handleEcho))

	a.server = &http.Server{Handler: a.count(mux)}

	go func() {
		if err := a.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			zap.S().Named("infra").Errorf("api mock server error: %v", err)
		}
	}()

	return a, nil
}

func (a *APIServer) BaseURL() string {
	return a.baseURL
}

// Hits returns the number of requests served.
func (a *APIServer) Hits() int {
	return int(a.hits.Load())
}

func (a *APIServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return a.server.Shutdown(ctx)
}

// GenerateToken signs a token for username.
func (a *APIServer) GenerateToken(username string) (string, error) {
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    a.baseURL,
		Subject:   username,
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(a.privateKey)
}

func (a *APIServer) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.hits.Add(1)
		next.ServeHTTP(w, r)
	})
}

func (a *APIServer) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			return &a.privateKey.PublicKey, nil
		}, jwt.WithValidMethods([]string{"RS256"}))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, envelope{Code: http.StatusUnauthorized, Msg: "invalid token"})
			return
		}
		r.Header.Set("X-Subject", claims.Subject)
		next(w, r)
	}
}

func (a *APIServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Code: http.StatusBadRequest, Msg: "invalid request body"})
		return
	}
	if req.Username != a.Username || req.Password != a.Password {
		writeJSON(w, http.StatusUnauthorized, envelope{Code: http.StatusUnauthorized, Msg: "bad credentials"})
		return
	}

	token, err := a.GenerateToken(req.Username)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, envelope{Code: http.StatusInternalServerError, Msg: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, envelope{Msg: "ok", Data: map[string]string{"token": token}})
}

func (a *APIServer) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{Msg: "ok", Data: map[string]string{"username": r.Header.Get("X-Subject")}})
}

func (a *APIServer) handleFlaky(w http.ResponseWriter, r *http.Request) {
	if a.flakyHits.Add(1) <= a.FailFirst {
		writeJSON(w, http.StatusInternalServerError, envelope{Code: http.StatusInternalServerError, Msg: "try again"})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Msg: "ok"})
}

func (a *APIServer) handleEcho(w http.ResponseWriter, r *http.Request) {
	var body any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Code: http.StatusBadRequest, Msg: "invalid json"})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Msg: "ok", Data: body})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
