package api

import (
	"encoding/json"
	"net/http"
)

// WriteJSON encodes v as the response body. Non-ASCII text (emoji flags,
// accented titles) is written as-is.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
