// Package errcode defines the stable machine-readable codes carried in API
// error payloads next to the HTTP status. Clients switch on these instead of
// parsing messages.
package errcode

const (
	BadRequest         = "bad_request"
	EmailTaken         = "email_taken"
	InvalidCredentials = "invalid_credentials"
	Unauthorized       = "unauthorized"
	NotFound           = "not_found"
	RateLimited        = "rate_limited"
	Internal           = "internal_error"
)
