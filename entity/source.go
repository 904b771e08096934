package entity

// Source is a named data file.
type Source struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label,omitempty"`
	Path  string `yaml:"path"`
}
