package mw

import "net/http"

// forbid answers 403 in the same JSON shape as the gateway's other errors.
func forbid(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"detail":"forbidden"}` + "\n"))
}
