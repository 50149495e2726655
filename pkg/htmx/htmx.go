package htmx

import "net/http"

// IsHTMX returns true if the request originated from HTMX.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get(HeaderHXRequest) == "true"
}

// IsBoosted returns true if the request comes from an hx-boost link or form.
// Boosted requests swap the whole body and expect a full page.
func IsBoosted(r *http.Request) bool {
	return r.Header.Get(HeaderHXBoosted) == "true"
}

// IsHistoryRestore returns true if HTMX asks for a page missing from its
// history cache.
func IsHistoryRestore(r *http.Request) bool {
	return r.Header.Get(HeaderHXHistoryRestoreRequest) == "true"
}

// Target returns the id of the element the response will be swapped into.
func Target(r *http.Request) string {
	return r.Header.Get(HeaderHXTarget)
}

// WantsPartial reports whether the response should be a fragment rather
// than a full page wrapped in its layout.
func WantsPartial(r *http.Request) bool {
	return IsHTMX(r) && !IsBoosted(r) && !IsHistoryRestore(r)
}
