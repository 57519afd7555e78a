package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with the relay's timeouts. writeTimeout should
// exceed the upstream timeout so callbacks can finish both upstream calls.
func New(addr string, handler http.Handler, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
}
