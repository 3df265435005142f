// Package main is the entry point of hotel-site, the website and content
// admin panel of a multi-location hotel group. Public pages render content
// sections and site settings stored in the database through gorm; the admin
// panel edits them and refreshes the public site in place.
package main
