// Package types holds the wire envelopes shared by the storefront and staff
// APIs.
package types

// SuccessEnvelope wraps every 2xx JSON body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError carries the machine-readable code alongside the human message.
// Details is populated for validation failures with per-field problems.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every non-2xx JSON body.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
