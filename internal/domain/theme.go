package domain

// Theme describes one weekday's editorial focus and how to discover
// candidates for it. Read-only once loaded.
type Theme struct {
	Label    string   `yaml:"label"`
	Strategy string   `yaml:"strategy"`
	Feeds    []string `yaml:"feeds"`
	Keywords string   `yaml:"keywords"`
}
