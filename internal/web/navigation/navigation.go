// Package navigation holds the admin panel menu and the per-page navigation
// state (active entry, breadcrumbs) handed to templates.
package navigation

import "github.com/harbourhotels/hotel-site/internal/auth"

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title  string
	URL    string
	Active bool
}

// MenuItem is an entry of the admin sidebar.
type MenuItem struct {
	Title      string
	URL        string
	Icon       string
	Section    string
	Page       string
	Permission string
	Active     bool
}

// adminMenu lists the sidebar in display order.
var adminMenu = []MenuItem{ //nolint:gochecknoglobals
	{Title: "Dashboard", URL: "/admin", Icon: "star", Section: "dashboard", Page: "dashboard", Permission: auth.PermDashboard},
	{Title: "Page content", URL: "/admin/sections", Icon: "bed", Section: "content", Page: "sections", Permission: auth.PermSections},
	{Title: "Site settings", URL: "/admin/settings", Icon: "key", Section: "settings", Page: "site", Permission: auth.PermSettings},
	{Title: "Booking widget", URL: "/admin/settings/booking", Icon: "clock", Section: "settings", Page: "booking", Permission: auth.PermBooking},
	{Title: "Users", URL: "/admin/users", Icon: "heart", Section: "admin", Page: "user", Permission: auth.PermUsers},
}

// Context represents the navigation context for a page.
type Context struct {
	ActiveSection string
	ActivePage    string
	Breadcrumbs   []BreadcrumbItem
	PageTitle     string
}

// NewContext creates a new navigation context. The dashboard breadcrumb is
// not added automatically.
func NewContext(pageTitle, activeSection, activePage string) *Context {
	return &Context{
		PageTitle:     pageTitle,
		ActiveSection: activeSection,
		ActivePage:    activePage,
		Breadcrumbs:   make([]BreadcrumbItem, 0),
	}
}

// AddBreadcrumb adds a breadcrumb item to the context.
func (c *Context) AddBreadcrumb(title, url string, active bool) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, BreadcrumbItem{
		Title:  title,
		URL:    url,
		Active: active,
	})

	return c
}

// IsActive checks if the given section and page match the current context.
func (c *Context) IsActive(section, page string) bool {
	return c.ActiveSection == section && c.ActivePage == page
}

// IsSectionActive checks if the given section is active.
func (c *Context) IsSectionActive(section string) bool {
	return c.ActiveSection == section
}

// Menu returns the sidebar entries the holder of can may open, with the
// entry of the current page marked active. A nil receiver marks nothing.
func (c *Context) Menu(can map[string]bool) []MenuItem {
	items := make([]MenuItem, 0, len(adminMenu))

	for _, item := range adminMenu {
		if !can[item.Permission] {
			continue
		}

		item.Active = c != nil && c.IsActive(item.Section, item.Page)
		items = append(items, item)
	}

	return items
}
