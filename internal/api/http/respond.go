package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/quiz"
	"github.com/nishamurthy-22/kambaz-node-server-app/internal/rbac"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an engine error kind to an HTTP status.
func statusFor(kind quiz.Kind) int {
	switch kind {
	case quiz.KindAuthorization:
		return http.StatusForbidden
	case quiz.KindState, quiz.KindPolicy:
		return http.StatusConflict
	case quiz.KindValidation:
		return http.StatusBadRequest
	case quiz.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := quiz.KindOf(err)
	if kind == quiz.KindAuthorization && rbac.PrincipalFromContext(r.Context()).Anonymous() {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "authentication required", Kind: "unauthenticated"})
		return
	}
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		writeJSON(w, status, errorBody{Error: "internal error", Kind: "internal"})
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: string(kind)})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Kind: string(quiz.KindValidation)})
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched
// and reports ok.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
