package handler

const (
	// BaseLayout is the layout of the admin panel.
	BaseLayout = "layouts/base"

	// SiteLayout is the layout of the public site.
	SiteLayout = "layouts/site"

	// RootPath is the root path the route group.
	RootPath = "/"

	// RouterRootPath is the root path inside a route group.
	RouterRootPath = "/"

	// AdminPath is the prefix of every admin route.
	AdminPath = RootPath + "admin"

	// ErrNilACDFatalLogMsg is used if app or deps pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"
)
