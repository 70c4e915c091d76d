package shopapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// APIError is a structured error decoded from the backend's error payload.
type APIError struct {
	err       error
	message   string
	param     string
	errorType string
	errorCode string
	status    int
}

func (e *APIError) Error() string {
	if e.errorCode != "" {
		return fmt.Sprintf("shopapi: %s (%s)", e.message, e.errorCode)
	}
	return "shopapi: " + e.message
}

func (e *APIError) Unwrap() error { return e.err }

// Code returns the machine-readable error code, empty when the server sent none.
func (e *APIError) Code() string { return e.errorCode }

// Type returns the error class, for example "invalid_request_error".
func (e *APIError) Type() string { return e.errorType }

// Param names the offending request parameter when the server identified one.
func (e *APIError) Param() string { return e.param }

// Status is the HTTP status the error arrived with.
func (e *APIError) Status() int { return e.status }

// handleAPIError decodes a non-2xx response into an error. Structured
// payloads of the form {"error":{"message","type","param","code"}} become an
// *APIError; anything else falls back to a generic error with a truncated
// body excerpt.
func handleAPIError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("shopapi: API error with status %s (failed to read response body: %v)", resp.Status, err)
	}

	var apiErr struct {
		Error struct {
			Message string  `json:"message"`
			Type    string  `json:"type"`
			Param   *string `json:"param"`
			Code    string  `json:"code"`
		} `json:"error"`
	}

	if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
		param := ""
		if apiErr.Error.Param != nil {
			param = *apiErr.Error.Param
		}
		return &APIError{
			err:       errors.New(apiErr.Error.Message),
			message:   apiErr.Error.Message,
			param:     param,
			errorType: apiErr.Error.Type,
			errorCode: apiErr.Error.Code,
			status:    resp.StatusCode,
		}
	}

	bodyStr := string(body)
	if len(bodyStr) > 100 {
		bodyStr = bodyStr[:100] + "..."
	}
	return fmt.Errorf("shopapi: API error %d: %s", resp.StatusCode, bodyStr)
}
