package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes data as a JSON response. Stats and history change with every
// game, so responses are never cached. The body is encoded before the
// header is written so an encoding failure still yields a clean 500.
func JSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		http.Error(w, `{"error":{"code":"INTERNAL_ERROR","message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
