// Package httputil centralizes JSON encoding and error translation for HTTP
// handlers. Handlers pass errors through WriteError so the wire envelope and
// status mapping stay uniform across modules.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "claimcheck/pkg/domain-errors"
)

// Validatable is implemented by request types that normalize and validate
// themselves after decoding. Validate may populate parsed fields on the
// receiver.
type Validatable interface {
	Validate() error
}

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into the error envelope. Domain error codes map
// to HTTP statuses; anything uncoded is treated as internal. Internal-class
// errors omit the description so causes never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	status := statusFor(code)

	resp := errorResponse{Error: string(code)}
	if !internalClass(code) {
		var de *dErrors.Error
		if errors.As(err, &de) {
			resp.ErrorDescription = de.Message()
		}
	}
	WriteJSON(w, status, resp)
}

// DecodeAndPrepare decodes the JSON request body into T and runs its
// validation when T implements Validatable. On failure it writes the error
// response and returns ok=false; handlers just return.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body"))
		return req, false
	}
	if v, ok := any(&req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			WriteError(w, err)
			return req, false
		}
	}
	return req, true
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func internalClass(code dErrors.Code) bool {
	return code == dErrors.CodeInternal || code == dErrors.CodeInvariantViolation
}
