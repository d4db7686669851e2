package types

type SuccessEnvelope struct {
	Data any `json:"data"`
	// Warnings carries non-fatal side-effect failures (e.g. vendor
	// notification delivery) that did not roll back the transition.
	Warnings []string `json:"warnings,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
