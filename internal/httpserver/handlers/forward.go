package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openeduhub/kidra/internal/forward"
	"github.com/openeduhub/kidra/internal/httpserver/deps"
	"github.com/openeduhub/kidra/internal/logger"
)

// maxRequestBytes caps accepted request bodies.
const maxRequestBytes = 32 << 20

// UnknownService answers a POST to a name that is not registered.
func UnknownService(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusNotFound, "service not found")
}

// Forward relays POST /{service} to the backend named in the URL.
func Forward(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveForward(w, r, d, chi.URLParam(r, "service"))
	}
}

// ForwardTo relays to one fixed backend; used when routes are built per service.
func ForwardTo(d deps.Deps, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveForward(w, r, d, name)
	}
}

func serveForward(w http.ResponseWriter, r *http.Request, d deps.Deps, name string) {
	desc, err := d.Registry.Lookup(name)
	if err != nil {
		UnknownService(w, r)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeDetail(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if !json.Valid(body) {
		writeDetail(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}

	resp, err := d.Forwarder.Forward(r.Context(), desc, body)
	if err != nil {
		var backendErr *forward.BackendError
		switch {
		case errors.As(err, &backendErr):
			writeDetail(w, backendErr.Status, backendErr.Detail)
		case errors.Is(err, forward.ErrBadRequest):
			writeDetail(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, forward.ErrBackendUnavailable):
			writeDetail(w, http.StatusBadGateway, "service "+name+" is unavailable")
		default:
			d.Logger.Error("forward failed", logger.String("service", name), logger.Error(err))
			writeDetail(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	w.Header().Set("Content-Type", resp.ContentType)
	w.WriteHeader(resp.Status)
	if _, err := w.Write(resp.Body); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
}
