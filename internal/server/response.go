package server

import (
	"encoding/json"
	"net/http"

	"assetcatalog/internal/catalogerr"
	"assetcatalog/internal/constants"
)

// errorBody is the nested envelope spec.md mandates: {"error":{"code","message","details"}}.
type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes the nested error envelope for an arbitrary code/message/details.
func WriteError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	WriteJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message, Details: details}})
}

// WriteServiceError maps a service-layer error onto the HTTP status and
// envelope its code implies. Errors that are not a *catalogerr.ServiceError
// are rendered as an opaque 500 INTERNAL, never leaking internals.
func WriteServiceError(w http.ResponseWriter, err error) {
	svcErr, ok := catalogerr.As(err)
	if !ok {
		WriteError(w, http.StatusInternalServerError, constants.ErrCodeInternalError, "internal server error", nil)
		return
	}
	WriteError(w, catalogerr.HTTPStatus(svcErr.Code), svcErr.Code, svcErr.Message, svcErr.Details)
}

// WriteSuccess writes a 200 JSON response.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}
