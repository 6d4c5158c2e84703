package utils

import (
	"encoding/json"
	"net/http"
)

// WriteJSON encodes v as the whole response body.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteMessage writes msg as a bare JSON string, the body shape every
// write endpoint and every error uses.
func WriteMessage(w http.ResponseWriter, status int, msg string) error {
	return WriteJSON(w, status, msg)
}

func WriteText(w http.ResponseWriter, status int, text string) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write([]byte(text))
	return err
}
