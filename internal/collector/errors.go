package collector

import (
	"fmt"
	"net/http"
)

// NetworkError reports a transport failure or a non-2xx response.
type NetworkError struct {
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		if e.Err != nil {
			return fmt.Sprintf("network error: status %d %s: %v", e.StatusCode, http.StatusText(e.StatusCode), e.Err)
		}
		return fmt.Sprintf("network error: status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError reports a payload that is not a JSON array of objects.
type ParseError struct {
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Detail, e.Err)
	}
	return "parse error: " + e.Detail
}

func (e *ParseError) Unwrap() error { return e.Err }
