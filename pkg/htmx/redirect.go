package htmx

import (
	"net/http"
	"strings"
)

// Redirect performs a redirect for both HTMX and regular requests.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	RedirectWithStatus(w, r, url, http.StatusFound)
}

// RedirectWithStatus performs a redirect with a custom status code.
// HTMX requests get a 200 with a client-side redirect header: HX-Location
// for local paths, which keeps the page and swaps the body, and
// HX-Redirect for anything else.
func RedirectWithStatus(w http.ResponseWriter, r *http.Request, targetURL string, status int) {
	if !IsHTMX(r) {
		http.Redirect(w, r, targetURL, status)
		return
	}

	header := HeaderHXRedirect
	if isLocalPath(targetURL) {
		header = HeaderHXLocation
	}
	w.Header().Set(header, targetURL)
	w.WriteHeader(http.StatusOK)
}

func isLocalPath(u string) bool {
	return strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//")
}
