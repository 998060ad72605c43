package github

import (
	"fmt"
	"strings"
)

// GraphQLError is one entry of a GraphQL "errors" list.
type GraphQLError struct {
	Message string `json:"message"`
	// Path elements are strings (field names) or numbers (list indices).
	Path []any  `json:"path,omitempty"`
	Type string `json:"type,omitempty"`
}

// Errors is the error list returned by the remote service.
type Errors []GraphQLError

// Messages joins the error messages with " / ".
func (es Errors) Messages() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, " / ")
}

// errorResponse is the generic error shape decoded when the data shape fails.
type errorResponse struct {
	Errors Errors `json:"errors"`
}

// TransportError reports a failure to reach the remote service or a
// non-success status from it. It is never retried.
type TransportError struct {
	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int
	// ExitCode is the exit status of the gh subprocess, zero for HTTP.
	ExitCode int
	// Detail holds the response body or subprocess stderr, trimmed.
	Detail string
	Err    error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString("transport")
	switch {
	case e.StatusCode != 0:
		fmt.Fprintf(&b, ": http status %d", e.StatusCode)
	case e.ExitCode != 0:
		fmt.Fprintf(&b, ": gh exited with status %d", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a response that did not match the expected shape.
// Remote holds any error messages found in the same body; ShapeErr is set
// when the body did not match the error shape either.
type DecodeError struct {
	Operation string
	Err       error
	Remote    Errors
	ShapeErr  error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("decode %s response: %v", e.Operation, e.Err)
	switch {
	case len(e.Remote) > 0:
		return msg + ": " + e.Remote.Messages()
	case e.ShapeErr != nil:
		return fmt.Sprintf("%s: decode error response: %v", msg, e.ShapeErr)
	}
	return msg
}

func (e *DecodeError) Unwrap() []error {
	if e.ShapeErr != nil {
		return []error{e.Err, e.ShapeErr}
	}
	return []error{e.Err}
}

// RemoteError reports a well-formed error list returned for an operation
// whose data could not be used.
type RemoteError struct {
	Operation string
	Errors    Errors
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, e.Errors.Messages())
}
