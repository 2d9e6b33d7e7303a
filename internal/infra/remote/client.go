package remote

import (
	"net/http"
	"time"
)

// NewHTTPClient returns the client used for the auth, score and catalog
// endpoints. It speaks http(s) only; local catalog directories are handled
// by NewCatalog.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
		Timeout:   timeout,
	}
}
