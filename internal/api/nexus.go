package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"

	"github.com/YahSeh/Nexus-terminal/internal/auth"
	"github.com/YahSeh/Nexus-terminal/internal/config"
	"github.com/YahSeh/Nexus-terminal/internal/database"
	"github.com/YahSeh/Nexus-terminal/internal/server"
	"github.com/YahSeh/Nexus-terminal/internal/session"
)

type NexusApp struct {
	log            *log.Logger
	db             database.NexusRepository
	mux            *http.Server
	cs             *server.ChatServer
	verifier       *auth.CredentialVerifier
	guard          *session.Guard
	signingKey     []byte
	allowedOrigins []string
}

func NewNexusApp(mux *http.ServeMux, logger *log.Logger, cs *server.ChatServer, db database.NexusRepository, verifier *auth.CredentialVerifier, guard *session.Guard, cfg *config.Config) *NexusApp {
	s := &NexusApp{
		log:            logger,
		db:             db,
		cs:             cs,
		verifier:       verifier,
		guard:          guard,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("POST /api/login", s.login)
	mux.Handle("POST /api/logout", s.authMiddleware(s.logout))
	mux.Handle("POST /api/verify_basecamp", s.authMiddleware(s.verifyBasecamp))
	mux.Handle("POST /api/activity", s.authMiddleware(s.activity))
	mux.Handle("GET /api/session", s.authMiddleware(s.session))
	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *NexusApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *NexusApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
