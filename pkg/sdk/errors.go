package docqa

import (
	"encoding/json"
	"fmt"
)

// APIError is a structured error response from the server.
// Use errors.As to inspect the code and status.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("docqa: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("docqa: %s (http %d)", e.Message, e.StatusCode)
}

// Error codes the server may return.
const (
	CodeBadRequest    = "bad_request"
	CodeValidation    = "validation_failed"
	CodeNoDocument    = "no_document"
	CodeFileType      = "file_type_not_allowed"
	CodeProviderError = "provider_error"
	CodeInternalError = "internal_error"
)

func parseAPIError(status int, body []byte) error {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || (payload.Message == "" && payload.Code == "") {
		return &APIError{StatusCode: status, Message: string(body)}
	}
	return &APIError{
		StatusCode: status,
		Code:       payload.Code,
		Message:    payload.Message,
	}
}
