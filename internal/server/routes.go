package server

import (
	"net/http"

	"github.com/woozymasta/trackmap/internal/metrics"
)

// Routes builds the request multiplexer wrapped in the request logger.
func (s *ServerContext) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/panels", s.HandlePanelsList)
	mux.HandleFunc("/api/schema", s.HandleSchema)
	mux.HandleFunc("/api/render", s.HandleRender)
	mux.HandleFunc("/panels/", s.HandlePanel)
	mux.HandleFunc("/favicon.ico", s.HandleFavicon)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/", s.HandleIndex)

	return RequestLogger(mux)
}
