// Package icon maps icon names used in section documents to inline SVG.
//
// Editors type icon names into content; anything unknown renders the default
// icon so a region never silently loses its symbol.
package icon

import (
	"fmt"
	"html/template"
	"slices"
	"strings"
)

// Default is the name of the fallback icon.
const Default = "dot"

const svgFormat = `<svg class="icon icon-%s" xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" ` +
	`width="24" height="24" fill="none" stroke="currentColor" stroke-width="2" ` +
	`stroke-linecap="round" stroke-linejoin="round" aria-hidden="true">%s</svg>`

// shapes holds the SVG body of every known icon.
var shapes = map[string]string{ //nolint:gochecknoglobals
	Default:      `<circle cx="12" cy="12" r="4"/>`,
	"bed":        `<path d="M2 4v16"/><path d="M2 8h18a2 2 0 0 1 2 2v10"/><path d="M2 17h20"/><path d="M6 8v9"/>`,
	"wifi":       `<path d="M5 13a10 10 0 0 1 14 0"/><path d="M8.5 16.5a5 5 0 0 1 7 0"/><path d="M2 8.8a15 15 0 0 1 20 0"/><line x1="12" y1="20" x2="12.01" y2="20"/>`,
	"pool":       `<path d="M2 12c2 0 2 1.5 4 1.5S8 12 10 12s2 1.5 4 1.5 2-1.5 4-1.5 2 1.5 4 1.5"/><path d="M2 18c2 0 2 1.5 4 1.5S8 18 10 18s2 1.5 4 1.5 2-1.5 4-1.5 2 1.5 4 1.5"/><path d="M8 12V5a2 2 0 0 1 4 0"/><path d="M16 12V5a2 2 0 0 0-4 0"/>`,
	"spa":        `<path d="M12 22c4-2 7-6 7-11-3 0-5.5 1.5-7 4-1.5-2.5-4-4-7-4 0 5 3 9 7 11z"/><path d="M12 15c0-4 1-8 0-11-1 3 0 7 0 11z"/>`,
	"restaurant": `<path d="M3 2v7c0 1.1.9 2 2 2h4a2 2 0 0 0 2-2V2"/><path d="M7 2v20"/><path d="M21 15V2a5 5 0 0 0-5 5v6c0 1.1.9 2 2 2h3zm0 0v7"/>`,
	"coffee":     `<path d="M17 8h1a4 4 0 1 1 0 8h-1"/><path d="M3 8h14v9a4 4 0 0 1-4 4H7a4 4 0 0 1-4-4Z"/><line x1="6" y1="2" x2="6" y2="4"/><line x1="10" y1="2" x2="10" y2="4"/><line x1="14" y1="2" x2="14" y2="4"/>`,
	"parking":    `<rect x="3" y="3" width="18" height="18" rx="2"/><path d="M9 17V7h4a3 3 0 0 1 0 6H9"/>`,
	"gym":        `<path d="M6.5 6.5h11"/><path d="M6.5 17.5h11"/><path d="M6 20v-2a6 6 0 1 1 12 0v2"/><path d="M4 6v12"/><path d="M20 6v12"/>`,
	"map-pin":    `<path d="M20 10c0 6-8 12-8 12s-8-6-8-12a8 8 0 0 1 16 0Z"/><circle cx="12" cy="10" r="3"/>`,
	"phone":      `<path d="M22 16.9v3a2 2 0 0 1-2.2 2 19.8 19.8 0 0 1-8.6-3.1 19.5 19.5 0 0 1-6-6A19.8 19.8 0 0 1 2.1 4.2 2 2 0 0 1 4.1 2h3a2 2 0 0 1 2 1.7c.1.9.4 1.8.7 2.7a2 2 0 0 1-.5 2.1L8 9.8a16 16 0 0 0 6 6l1.3-1.3a2 2 0 0 1 2.1-.4c.9.3 1.8.6 2.7.7a2 2 0 0 1 1.7 2z"/>`,
	"mail":       `<rect x="2" y="4" width="20" height="16" rx="2"/><path d="m22 7-10 6L2 7"/>`,
	"clock":      `<circle cx="12" cy="12" r="10"/><polyline points="12 6 12 12 16 14"/>`,
	"star":       `<polygon points="12 2 15.1 8.3 22 9.3 17 14.1 18.2 21 12 17.8 5.8 21 7 14.1 2 9.3 8.9 8.3 12 2"/>`,
	"check":      `<polyline points="20 6 9 17 4 12"/>`,
	"heart":      `<path d="M19 14c1.5-1.5 3-3.2 3-5.5A5.5 5.5 0 0 0 16.5 3c-1.8 0-3 .5-4.5 2-1.5-1.5-2.7-2-4.5-2A5.5 5.5 0 0 0 2 8.5c0 2.3 1.5 4 3 5.5l7 7Z"/>`,
	"key":        `<circle cx="7.5" cy="15.5" r="5.5"/><path d="m21 2-9.6 9.6"/><path d="m15.5 7.5 3 3L22 7l-3-3"/>`,
	"pet":        `<circle cx="11" cy="4" r="2"/><circle cx="18" cy="8" r="2"/><circle cx="20" cy="16" r="2"/><path d="M9 10a5 5 0 0 1 5 5v3.5a3.5 3.5 0 0 1-6.8 1.2 3.5 3.5 0 0 0-2.3-2.3A3.5 3.5 0 0 1 6 10.5 5 5 0 0 1 9 10z"/>`,
	"instagram":  `<rect x="2" y="2" width="20" height="20" rx="5"/><path d="M16 11.4A4 4 0 1 1 12.6 8 4 4 0 0 1 16 11.4z"/><line x1="17.5" y1="6.5" x2="17.51" y2="6.5"/>`,
	"facebook":   `<path d="M18 2h-3a5 5 0 0 0-5 5v3H7v4h3v8h4v-8h3l1-4h-4V7a1 1 0 0 1 1-1h3z"/>`,
	"twitter":    `<path d="M4 4l16 16"/><path d="M20 4 4 20"/>`,
	"linkedin":   `<path d="M16 8a6 6 0 0 1 6 6v7h-4v-7a2 2 0 0 0-4 0v7h-4v-7a6 6 0 0 1 6-6z"/><rect x="2" y="9" width="4" height="12"/><circle cx="4" cy="4" r="2"/>`,
}

// aliases maps alternative spellings onto known icons.
var aliases = map[string]string{ //nolint:gochecknoglobals
	"swimming-pool": "pool",
	"dining":        "restaurant",
	"breakfast":     "coffee",
	"fitness":       "gym",
	"location":      "map-pin",
	"email":         "mail",
	"x":             "twitter",
}

// normalize lowercases and treats "_" and spaces like "-".
func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))

	return strings.NewReplacer("_", "-", " ", "-").Replace(name)
}

// Lookup resolves name to a registered icon name. ok is false when the
// default icon had to be used.
func Lookup(name string) (string, bool) {
	n := normalize(name)

	if alias, found := aliases[n]; found {
		n = alias
	}

	if _, found := shapes[n]; found {
		return n, true
	}

	return Default, false
}

// Render returns the inline SVG for name, falling back to the default icon.
func Render(name string) template.HTML {
	resolved, _ := Lookup(name)

	return template.HTML(fmt.Sprintf(svgFormat, resolved, shapes[resolved])) //nolint:gosec // static markup
}

// Names returns every registered icon name, sorted.
func Names() []string {
	names := make([]string, 0, len(shapes))
	for name := range shapes {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
