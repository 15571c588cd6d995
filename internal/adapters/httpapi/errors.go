package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeDomainError maps a domain error to the status codes of spec
// section 7/6.1. Unrecognised errors are treated as storage failures
// (5xx) rather than leaking internals.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrIdExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrNotAuthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, shared.ErrCancelled):
		writeError(w, http.StatusServiceUnavailable, err.Error())

	case asType[*shared.UnknownReferenceError](err) != nil:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case asType[*shared.InvalidCurveError](err) != nil:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case asType[*shared.ParentMissingError](err) != nil:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case asType[*shared.InfeasibleError](err) != nil:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case asType[*shared.ValidationError](err) != nil:
		writeError(w, http.StatusUnprocessableEntity, err.Error())

	case asType[*shared.NumericalFailureError](err) != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	case asType[*shared.StorageFailureError](err) != nil:
		writeError(w, http.StatusInternalServerError, err.Error())

	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func asType[T error](err error) T {
	var target T
	if errors.As(err, &target) {
		return target
	}
	var zero T
	return zero
}
