package site

// Hero is the banner at the top of every page.
type Hero struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Image    string `json:"image"`
	CTALabel string `json:"cta_label"`
	CTAURL   string `json:"cta_url"`
}

// Item is an entry of a card grid (highlights, values, facilities).
type Item struct {
	Icon  string `json:"icon"`
	Title string `json:"title"`
	Text  string `json:"text"`
	Image string `json:"image"`
}

// Items is a titled card grid.
type Items struct {
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// Prose is a titled markdown block.
type Prose struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Location is one hotel of the group.
type Location struct {
	Name        string `json:"name"`
	City        string `json:"city"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Image       string `json:"image"`
	MapURL      string `json:"map_url"`
	Description string `json:"description"`
}

// Locations lists the hotels.
type Locations struct {
	Title string     `json:"title"`
	Items []Location `json:"items"`
}

// ContactDetails is the address block of the contact and booking pages.
type ContactDetails struct {
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Hours   string `json:"hours"`
}

// Question is one FAQ entry, Answer is markdown.
type Question struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Questions is the FAQ list.
type Questions struct {
	Title string     `json:"title"`
	Items []Question `json:"items"`
}

// Policies lists titled markdown blocks.
type Policies struct {
	Title string  `json:"title"`
	Items []Prose `json:"items"`
}

// SocialLink is a footer link to a social network profile.
type SocialLink struct {
	Icon string
	URL  string
}

// NavLink is an entry of the main menu.
type NavLink struct {
	Page  string
	Title string
	URL   string
}
