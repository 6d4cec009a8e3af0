package middleware

// Echo context keys set by the middleware chain. The operator keys are only
// present on JWT-protected routes.
const (
	ContextKeyOperatorID    = "operator_id"
	ContextKeyOperatorEmail = "operator_email"
	ContextKeyOperatorRole  = "operator_role"
	ContextKeyRequestID     = "request_id"
)
