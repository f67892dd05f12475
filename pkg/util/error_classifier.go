package util

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"

	"taskboard/pkg/circuitbreaker"
)

// statusCoder is implemented by HTTP error types that carry a status code.
type statusCoder interface {
	HTTPStatus() int
}

// ClassifyError returns whether err looks transient and a short label for
// logs and metrics. Nothing in the board retries automatically; the label
// only tells the operator whether a later manual attempt may succeed.
func ClassifyError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
		return true, "circuit_open"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true, "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return false, "context_canceled"
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return false, "json_decode_error"
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return false, "json_decode_error"
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		code := sc.HTTPStatus()
		switch {
		case code == 429:
			return true, "http_429"
		case code >= 500:
			return true, "http_5xx"
		case code == 404:
			return false, "not_found"
		case code >= 400:
			return false, "http_4xx"
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}

	return false, "unknown_error"
}
