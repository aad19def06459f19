package api

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a request to the ratings service failed.
type ErrorKind int

const (
	KindTransport ErrorKind = iota + 1 // network or connection fault
	KindStatus                         // non-2xx response
	KindDecode                         // body did not match the expected schema
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	}
	return "unknown"
}

// Error is returned by every Client method. Its message is meant to be shown
// to a user as-is.
type Error struct {
	Kind       ErrorKind
	Endpoint   string
	StatusCode int    // KindStatus only
	Status     string // KindStatus only
	Body       string // KindStatus only, truncated
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("fetching %s failed: HTTP error, status: %d", e.Endpoint, e.StatusCode)
	case KindDecode:
		return fmt.Sprintf("fetching %s failed: invalid response: %v", e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("fetching %s failed: %v", e.Endpoint, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of an *Error anywhere in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// IsStatus reports whether err is a non-2xx response error.
func IsStatus(err error) bool {
	return KindOf(err) == KindStatus
}

// maxBodyExcerpt bounds how much of an error body is kept.
const maxBodyExcerpt = 512

func excerpt(body []byte) string {
	if len(body) > maxBodyExcerpt {
		return string(body[:maxBodyExcerpt])
	}
	return string(body)
}
