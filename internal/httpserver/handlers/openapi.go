package handlers

import (
	"net/http"

	"github.com/openeduhub/kidra/internal/httpserver/deps"
)

// OpenAPI serves the merged API document of the gateway and all backends.
func OpenAPI(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := d.Schema.MergedSchema(r.Context())
		if err != nil {
			writeDetail(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}
