package auth

// Permission constants define the available permissions in the admin panel.
// Every admin route is guarded by exactly one of them.
const (
	// PermDashboard allows viewing the admin dashboard with the page overview.
	PermDashboard = "admin.dashboard"
	// PermSections allows managing content sections of all pages.
	PermSections = "admin.sections"
	// PermSettings allows managing global site settings (logos, favicon, contact details).
	PermSettings = "admin.settings"
	// PermMedia allows uploading images into the blob store.
	PermMedia = "admin.media"
	// PermBooking allows configuring the booking widget.
	PermBooking = "admin.booking"
	// PermUsers allows managing admin accounts.
	PermUsers = "admin.users"
)

// PermissionDef describes a permission for seeding.
type PermissionDef struct {
	Name        string
	Description string
}

// Permissions returns every permission known to the application.
func Permissions() []PermissionDef {
	return []PermissionDef{
		{PermDashboard, "View the admin dashboard"},
		{PermSections, "Create, edit and delete page sections"},
		{PermSettings, "Edit global site settings"},
		{PermMedia, "Upload images"},
		{PermBooking, "Configure the booking widget"},
		{PermUsers, "Manage admin accounts"},
	}
}

// EditorPermissions returns the permissions of the built-in editor role.
func EditorPermissions() []string {
	return []string{PermDashboard, PermSections, PermSettings, PermMedia, PermBooking}
}
