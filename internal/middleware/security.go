package middleware

import "net/http"

// SecurityHeaders sets the response headers every console page carries.
// The policy is strict because the console is entirely server-rendered:
// its only assets are the embedded stylesheet and the SVG charts inlined
// by the templates, so no third-party origin or inline script is allowed.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "same-origin")
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; "+
				"style-src 'self'; "+
				"script-src 'self'; "+
				"img-src 'self' data:; "+
				"form-action 'self'; "+
				"connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}
