package middleware

import (
	"fmt"
	"html"
	"net/http"
)

// writeErrorPage writes a minimal standalone HTML error page.
// Middleware runs before handlers, so it cannot rely on the page templates.
func writeErrorPage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	title := html.EscapeString(http.StatusText(status))
	_, _ = fmt.Fprintf(w, `<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>%d %s</title></head>
<body><h1>%s</h1><p>%s</p><p><a href="/">Home</a> &middot; <a href="/login">Log in</a></p></body></html>
`, status, title, title, html.EscapeString(message))
}
