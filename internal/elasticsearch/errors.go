package elasticsearch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ErrTransport marks failures where no usable answer came back from the cluster:
// connection errors, timeouts and an open circuit breaker.
var ErrTransport = errors.New("elasticsearch transport failure")

// ResponseError is returned when the cluster answers with a non-2xx status.
type ResponseError struct {
	StatusCode int
	Type       string
	Reason     string
	Body       string
}

func (e *ResponseError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("elasticsearch returned %d: %s: %s", e.StatusCode, e.Type, e.Reason)
	}
	return fmt.Sprintf("elasticsearch returned %d: %s", e.StatusCode, e.Body)
}

// IsResponseError reports whether err wraps a *ResponseError and returns it.
func IsResponseError(err error) (*ResponseError, bool) {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr, true
	}
	return nil, false
}

const maxErrorBody = 4096

type errorEnvelope struct {
	Error json.RawMessage `json:"error"`
}

type errorCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// newResponseError reads an error response body. The caller closes the body.
func newResponseError(res *esapi.Response) *ResponseError {
	respErr := &ResponseError{StatusCode: res.StatusCode}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	if err != nil {
		respErr.Body = fmt.Sprintf("error reading response body: %v", err)
		return respErr
	}
	respErr.Body = string(body)

	var envelope errorEnvelope
	if json.Unmarshal(body, &envelope) != nil || len(envelope.Error) == 0 {
		return respErr
	}

	var cause errorCause
	if json.Unmarshal(envelope.Error, &cause) == nil {
		respErr.Type = cause.Type
		respErr.Reason = cause.Reason
		return respErr
	}

	var reason string
	if json.Unmarshal(envelope.Error, &reason) == nil {
		respErr.Reason = reason
	}
	return respErr
}

func transportError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}
