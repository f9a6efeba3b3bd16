package workspace

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is returned by Client.Do for every non-2xx response
type APIError struct {
	StatusCode int    `json:"-"`
	ErrorCode  string `json:"error_code,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("workspace API error [%d %s]: %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("workspace API error [%d]: %s", e.StatusCode, e.Message)
}

// HTTPStatusCode reports the status code of the failed response
func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}

func (e *APIError) APIErrorCode() string {
	return e.ErrorCode
}

func (e *APIError) APIMessage() string {
	return e.Message
}

func parseErrorResponse(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil {
		apiErr.ErrorCode = ""
		apiErr.Message = string(body)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}
