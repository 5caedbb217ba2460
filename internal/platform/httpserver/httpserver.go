package httpserver

import (
	"net/http"
	"time"
)

// Import runs are long but detached from the request; the handler only
// needs enough write headroom to cover the router's 60s request timeout.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 65 * time.Second
	idleTimeout       = 120 * time.Second
)

// New builds the HTTP server the import API listens on.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
