package http

import (
	"encoding/json"
	"net/http"

	"github.com/twineproject/twine/pkg/httpx"
)

// decodeJSON parses the request body into dst and runs its validation
// rules. On failure it writes the 400 envelope and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{ Validate() error }) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "malformed request body")
		return false
	}
	if err := dst.Validate(); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
