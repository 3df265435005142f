// Package auth provides the session gate of the admin area.
//
// Every path below /admin requires a valid session. Browsers without one are
// redirected to the login page with the original location in the next
// parameter, other clients get a 401. Public pages, static files and the
// login flow are never touched.
//
// Usage:
//
//	app.Use(authmiddleware.Middleware)
package auth
