// Package uniuri generates random strings for one-time credentials such as the
// bootstrap admin password.
package uniuri
