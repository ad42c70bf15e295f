// Package site serves the landing page that links the dashboard, the API
// docs and the metrics endpoint.
package site

import (
	"context"
	"net/http"
)

// Register attaches the landing page at / to mux. Paths with no embedded file
// get a 404 from the file server.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", http.FileServer(FS()))
}
