package models

import "time"

// Preset is a named, saved rule set
type Preset struct {
	ID          string       `yaml:"id" json:"id"`
	Name        string       `yaml:"name" json:"name"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Rules       []FilterRule `yaml:"rules" json:"rules"`
	Combinator  Combinator   `yaml:"combinator" json:"combinator"`
	Tags        []string     `yaml:"tags,omitempty" json:"tags,omitempty"`
	CreatedAt   time.Time    `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `yaml:"updated_at" json:"updated_at"`
	LastUsed    time.Time    `yaml:"last_used,omitempty" json:"last_used,omitempty"`
	UsageCount  int          `yaml:"usage_count" json:"usage_count"`
}
