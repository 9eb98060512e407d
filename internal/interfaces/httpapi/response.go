package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/osu-tournament-rating/internal/platform/tracing"
	"github.com/riskibarqy/osu-tournament-rating/internal/usecase"
)

const (
	envelopeVersion = "2.0"
	errorDomain     = "otr"
	internalMessage = "internal server error"
)

// envelope is the body shape of every JSON response: exactly one of data or error is set.
type envelope struct {
	APIVersion string     `json:"apiVersion"`
	Data       any        `json:"data,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code      int           `json:"code"`
	Message   string        `json:"message"`
	Status    string        `json:"status"`
	RequestID string        `json:"requestId,omitempty"`
	Errors    []errorDetail `json:"errors,omitempty"`
}

type errorDetail struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type errorClass struct {
	target     error
	HTTPStatus int
	Reason     string
	Status     string
}

// errorClasses is checked in order; the first sentinel matched by errors.Is wins.
var errorClasses = []errorClass{
	{usecase.ErrInvalidInput, http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"},
	{usecase.ErrDuplicateTournament, http.StatusBadRequest, "duplicateTournament", "INVALID_ARGUMENT"},
	{usecase.ErrNotFound, http.StatusNotFound, "notFound", "NOT_FOUND"},
	{usecase.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"},
	{usecase.ErrForbidden, http.StatusForbidden, "forbidden", "PERMISSION_DENIED"},
	{usecase.ErrInvalidTransition, http.StatusConflict, "invalidTransition", "FAILED_PRECONDITION"},
	{usecase.ErrPersistence, http.StatusServiceUnavailable, "persistenceFailure", "UNAVAILABLE"},
	{usecase.ErrDependencyUnavailable, http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"},
}

var unclassified = errorClass{HTTPStatus: http.StatusInternalServerError, Reason: "internalError", Status: "INTERNAL"}

func classify(err error) errorClass {
	for _, c := range errorClasses {
		if errors.Is(err, c.target) {
			return c
		}
	}
	return unclassified
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{APIVersion: envelopeVersion, Data: data})
}

// writeError maps err onto its HTTP class. Messages of unclassified errors are
// replaced so driver and upstream details never reach the client.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	class := classify(err)
	message := internalMessage
	if class.HTTPStatus != http.StatusInternalServerError {
		message = err.Error()
	}
	if class.HTTPStatus == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	if class.HTTPStatus >= http.StatusInternalServerError {
		tracing.Fail(ctx, err)
	}

	writeJSON(w, class.HTTPStatus, envelope{
		APIVersion: envelopeVersion,
		Error: &errorBody{
			Code:      class.HTTPStatus,
			Message:   message,
			Status:    class.Status,
			RequestID: requestIDFromContext(ctx),
			Errors:    []errorDetail{{Domain: errorDomain, Reason: class.Reason, Message: message}},
		},
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	writeError(ctx, w, errors.New(internalMessage))
}
