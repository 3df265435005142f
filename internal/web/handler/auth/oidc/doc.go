// Package oidc provides handlers for the OpenID Connect sign in of the admin panel.
//
// The flow:
//   - GET /auth/oidc/login issues a single use state token and redirects to the provider
//   - GET /auth/oidc/callback checks the state, exchanges the code, verifies the
//     ID token and provisions the user on first login
//
// The raw ID token is kept in the session so logout can end the provider session.
// Routes are only registered when OIDC is configured.
package oidc
