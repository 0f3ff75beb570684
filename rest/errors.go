package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ConnectivityError means no response was obtained at all. It is never
// conflated with a rejected response: the caller surfaces a generic
// "cannot reach server" and does not retry.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("cannot reach server: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// IsConnectivity reports whether err is a network-level failure.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}

// APIError is a non-success response. Detail is extracted from the
// structured `detail` field and displayed verbatim.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Detail)
}

// CredentialRejected reports whether the response means the active
// session's credential is no longer accepted.
func (e *APIError) CredentialRejected() bool {
	return e.Status == http.StatusUnauthorized
}

// IsCredentialRejected reports whether err is an unauthorized response.
func IsCredentialRejected(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.CredentialRejected()
}

// parseDetail extracts the error text from a response body. The
// `detail` field may be a plain string or a list of {msg} shaped
// entries, which are joined with ". ".
func parseDetail(body []byte, status int) string {
	fallback := fmt.Sprintf("request failed (%d)", status)

	var probe struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &probe); err != nil || len(probe.Detail) == 0 {
		return fallback
	}

	var s string
	if json.Unmarshal(probe.Detail, &s) == nil && s != "" {
		return s
	}

	var items []struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if json.Unmarshal(probe.Detail, &items) == nil {
		var parts []string
		for _, it := range items {
			if it.Msg != "" {
				parts = append(parts, it.Msg)
			} else if it.Message != "" {
				parts = append(parts, it.Message)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, ". ")
		}
	}
	return fallback
}
