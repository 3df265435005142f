package auth

import "errors"

var (
	// ErrNoIDToken is returned when the OAuth2 token response doesn't contain an ID token.
	ErrNoIDToken = errors.New("no id_token in token response")

	// ErrInvalidState is returned when an OIDC callback carries an unknown or expired state.
	ErrInvalidState = errors.New("invalid or expired oidc state")

	// ErrUserNameOrEmailExists is returned when attempting to create a user with a username or email that already exists.
	ErrUserNameOrEmailExists = errors.New("user with username or email already exists")

	// ErrUserAccountDisabled is returned when attempting to authenticate a disabled user account.
	ErrUserAccountDisabled = errors.New("user account is disabled")

	// ErrInvalidPassword is returned when the provided password is incorrect during authentication.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrUserNotFound is returned when a user cannot be found in the database.
	ErrUserNotFound = errors.New("user not found")

	// ErrRoleNotFound is returned when a role name does not exist.
	ErrRoleNotFound = errors.New("role not found")

	// ErrTOTPRequired is returned when the user enrolled TOTP but no code was given.
	ErrTOTPRequired = errors.New("totp code required")

	// ErrInvalidTOTP is returned when a TOTP code does not validate.
	ErrInvalidTOTP = errors.New("invalid totp code")

	// ErrProtectedUser is returned when deleting the own account or an administrator.
	ErrProtectedUser = errors.New("user can not be deleted")

	// ErrEmptyCredentials is returned when username or password is empty.
	ErrEmptyCredentials = errors.New("username and password are required")
)
