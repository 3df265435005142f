// Package login provides HTTP handlers for the admin panel sign in.
package login

import "errors"

var (
	// ErrInvalidFormData is returned when the submitted login form cannot be parsed.
	ErrInvalidFormData = errors.New("invalid form data")

	// ErrLocalAuthDisabled is returned when neither the local database nor LDAP
	// accepts username/password sign in.
	ErrLocalAuthDisabled = errors.New("password authentication is disabled")

	// ErrInvalidCredentials is shown for every credential failure so the form
	// does not reveal which usernames exist.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInternalServerError is returned for unexpected failures during the login
	// process.
	ErrInternalServerError = errors.New("internal server error")
)
