package feed

// Filters limits which episodes are stored (defaults to matching anything)
type Filters struct {
	Title          string `toml:"title"`
	NotTitle       string `toml:"not_title"`
	Description    string `toml:"description"`
	NotDescription string `toml:"not_description"`
	// MaxAge skips episodes published more than this many days ago
	MaxAge int `toml:"max_age"`
}
