package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/moodlog/server/internal/auth"
	"github.com/moodlog/server/internal/mood"
	"github.com/moodlog/server/internal/repo"
)

// envelope is the uniform API response shape.
type envelope struct {
	StatusCode int         `json:"statusCode"`
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
}

// respond writes a success envelope
func respond(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	writeEnvelope(w, envelope{
		StatusCode: statusCode,
		Success:    true,
		Message:    message,
		Data:       data,
	})
}

// respondWithError writes a failure envelope
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	writeEnvelope(w, envelope{
		StatusCode: statusCode,
		Success:    false,
		Message:    message,
		Data:       nil,
	})
}

func writeEnvelope(w http.ResponseWriter, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// respondServiceError maps service sentinel errors to HTTP statuses. Unknown
// errors become opaque 500s.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrOTPRequired),
		errors.Is(err, auth.ErrPasswordRequired),
		errors.Is(err, auth.ErrSamePassword),
		errors.Is(err, auth.ErrInvalidOTP),
		errors.Is(err, auth.ErrNoPendingVerification),
		errors.Is(err, auth.ErrNoResetRequest),
		errors.Is(err, mood.ErrInvalidMood),
		errors.Is(err, mood.ErrInvalidSatisfaction):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrEmailExists):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, mood.ErrLogNotFound),
		errors.Is(err, repo.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		respondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrWrongPassword):
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, mood.ErrSatisfactionSubmitted):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "something went wrong")
	}
}
