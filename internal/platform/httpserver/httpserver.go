package httpserver

import (
	"net/http"
	"time"

	"lostfound/internal/platform/config"
)

// New builds an HTTP server from the server configuration.
func New(cfg config.ServerConfig, handler http.Handler) *http.Server {
	readHeader := cfg.ReadHeaderTimeout
	if readHeader <= 0 {
		readHeader = 5 * time.Second
	}
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeader,
		ReadTimeout:       cfg.RequestTimeout,
		// The write deadline has to outlive the request timeout so the
		// timeout response can still be written.
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  2 * time.Minute,
	}
}
