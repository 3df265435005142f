// Package content resolves the public site's content from the database.
//
// A Client caches the active sections of one page and answers keyed lookups
// with caller supplied fallbacks. A Registry keeps one Client per page for the
// lifetime of the process and is told to refetch by the admin write path.
// A Resolver turns the raw site settings into an immutable Snapshot, applying
// the legacy key precedence for logos, favicon and site name.
//
// Read failures never leave this package as hard errors: pages render with
// their fallbacks and settings keep their previous values.
package content
