package types

// RequestIDHeader carries the correlation id echoed on every ShareIt response.
const RequestIDHeader = "X-Request-Id"

// SuccessEnvelope wraps a booking payload or listing.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
