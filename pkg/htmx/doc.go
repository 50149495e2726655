// Package htmx detects HTMX requests and answers them with HTMX response
// headers.
//
// Rendering uses WantsPartial to decide whether a view is sent as a bare
// fragment or wrapped in its layout. Boosted and history-restore requests
// replace the whole page, so they still get the layout:
//
//	if htmx.WantsPartial(r) {
//		// render without layout
//	}
//
// Redirect and RedirectWithStatus send a regular HTTP redirect, or a 200
// with HX-Location (local paths) or HX-Redirect (other URLs) for HTMX
// requests.
package htmx
