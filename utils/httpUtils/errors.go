package httpUtils

import (
	"fmt"
	"net/http"
)

type (
	HttpError struct {
		StatusCode int
		Status     string
	}

	// TransportError means the request never produced a usable response:
	// the connection failed or the server answered with a non-200 status.
	TransportError struct {
		Op  string
		Err error
	}

	// ParseError means a response arrived but its body did not have the expected shape.
	ParseError struct {
		Op  string
		Err error
	}
)

func (e *HttpError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("unexpected HTTP status: %s", e.Status)
	}
	return fmt.Sprintf("unexpected HTTP status: %d %s", e.StatusCode, e.StatusText())
}

func (e *HttpError) StatusText() string {
	return http.StatusText(e.StatusCode)
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse error: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
