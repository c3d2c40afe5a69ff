package helpers

import (
	"encoding/json"
	"net/http"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeInvalidJSON   = "invalid_json"
	ErrCodeValidation    = "validation_failed"
	ErrCodeNotFound      = "not_found"
	ErrCodeConflict      = "duplicate"
	ErrCodeInternalError = "internal_error"
)

// APIResponse is the standardized envelope for all API responses.
// Code mirrors the HTTP status; Error carries one of the ErrCode constants.
// swagger:model APIResponse
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// ListResponse is the envelope for limit/offset listings.
// swagger:model ListResponse
type ListResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
	Count   int  `json:"count"`
	Total   int  `json:"total"`
}

// WriteJSON sets Content-Type to application/json, writes statusCode and encodes v.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteJSONSuccess encodes a successful APIResponse with the given message and data.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, message string, data any) {
	WriteJSON(w, statusCode, APIResponse{
		Success: statusCode < http.StatusBadRequest,
		Message: message,
		Data:    data,
		Code:    statusCode,
	})
}

// WriteJSONError encodes a failed APIResponse with the given error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteJSON(w, statusCode, APIResponse{
		Success: false,
		Message: message,
		Error:   code,
		Code:    statusCode,
	})
}
