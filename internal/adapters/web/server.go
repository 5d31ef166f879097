package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/RamezKamel4/sightline-security-advisor-sub000/internal/core/ports"
)

// Server hosts the REST API and the WebSocket event stream.
type Server struct {
	Addr        string
	AuthService ports.AuthService
	WSManager   *WSManager
	srv         *http.Server
}

// NewServer creates a new web server.
func NewServer(addr string, authService ports.AuthService, wsManager *WSManager) *Server {
	return &Server{
		Addr:        addr,
		AuthService: authService,
		WSManager:   wsManager,
	}
}

// Run starts the server and the event broadcaster, and blocks until the
// context is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	// No write timeout: scan requests run the engine synchronously and the
	// /ws endpoint holds its connection open.
	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.WSManager.Start(ctx)

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Println("Web server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Web server shutdown error: %v", err)
		}
	}()

	log.Printf("Web server listening on %s", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
