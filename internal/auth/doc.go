// Package auth provides authentication and authorization for the admin panel.
//
// Users carry exactly one role and roles carry a set of permissions. Two
// login sources exist:
//   - LocalProvider checks a username and an Argon2id password hash, followed
//     by a TOTP code when the user enrolled a second factor.
//   - OIDCProvider runs the authorization code flow against an external
//     identity provider and provisions unknown users with the configured
//     default role.
//
// Routes are protected with RequirePermission:
//
//	authService := auth.NewService(db)
//	app.Get("/admin/users", auth.RequirePermission(authService, auth.PermUsers), handler)
package auth
