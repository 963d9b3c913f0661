package handlers

import "net/http"

// Ping answers 200 with an empty body.
func Ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
