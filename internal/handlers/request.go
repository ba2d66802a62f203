package handlers

import (
	"net/http"
	"strconv"

	"github.com/segmentio/encoding/json"

	"github.com/GregMSThompson/dashboard-backend/internal/errs"
)

// maxBodyBytes bounds request bodies; inline sources carry their rows.
const maxBodyBytes = 16 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errs.NewValidationError("invalid request body: " + err.Error())
	}
	return nil
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.NewValidationError(key + " must be an integer")
	}
	return n, nil
}
