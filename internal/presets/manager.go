// Package presets stores named filter rule sets in a YAML file.
package presets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/lazysheet/internal/export"
	"github.com/rebeliceyang/lazysheet/internal/models"
)

const fileName = "presets.yaml"

var (
	// ErrNotFound is returned for an unknown preset ID
	ErrNotFound = errors.New("preset not found")
	// ErrDuplicateName is returned when a name is already taken (case-insensitive)
	ErrDuplicateName = errors.New("preset name already exists")
)

// Manager manages filter presets
type Manager struct {
	path    string
	presets []models.Preset
	now     func() time.Time
}

// NewManager creates a new presets manager
func NewManager(configDir string) (*Manager, error) {
	path := filepath.Join(configDir, fileName)

	m := &Manager{
		path:    path,
		presets: []models.Preset{},
		now:     time.Now,
	}

	// Load existing presets if file exists
	if _, err := os.Stat(path); err == nil {
		if err := m.Load(); err != nil {
			return nil, fmt.Errorf("failed to load presets: %w", err)
		}
	}

	return m, nil
}

// Path returns the backing file
func (m *Manager) Path() string {
	return m.path
}

// Load loads presets from the YAML file
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read presets file: %w", err)
	}

	var loaded []models.Preset
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to parse presets: %w", err)
	}
	m.presets = loaded
	return nil
}

// Save saves presets to the YAML file
func (m *Manager) Save() error {
	data, err := yaml.Marshal(m.presets)
	if err != nil {
		return fmt.Errorf("failed to marshal presets: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write presets file: %w", err)
	}

	return nil
}

func validate(name string, rules []models.FilterRule, combinator models.Combinator) error {
	if name == "" {
		return fmt.Errorf("preset name cannot be empty")
	}
	if len(rules) == 0 {
		return fmt.Errorf("preset must contain at least one rule")
	}
	for _, r := range rules {
		if !r.Operator.Valid() {
			return fmt.Errorf("preset rule %s: unknown operator", r)
		}
	}
	if combinator != models.CombineAnd && combinator != models.CombineOr {
		return fmt.Errorf("preset logic must be AND or OR, got %q", combinator)
	}
	return nil
}

func (m *Manager) nameTaken(name, exceptID string) bool {
	for _, p := range m.presets {
		if p.ID != exceptID && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// Add saves a new preset
func (m *Manager) Add(name, description string, rules []models.FilterRule, combinator models.Combinator, tags []string) (*models.Preset, error) {
	name = strings.TrimSpace(name)
	if err := validate(name, rules, combinator); err != nil {
		return nil, err
	}
	if m.nameTaken(name, "") {
		return nil, fmt.Errorf("%w: '%s' (names are case-insensitive)", ErrDuplicateName, name)
	}

	now := m.now()
	preset := models.Preset{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Rules:       append([]models.FilterRule(nil), rules...),
		Combinator:  combinator,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m.presets = append(m.presets, preset)

	if err := m.Save(); err != nil {
		return nil, fmt.Errorf("failed to save preset: %w", err)
	}

	return &preset, nil
}

// Update replaces the contents of an existing preset
func (m *Manager) Update(id, name, description string, rules []models.FilterRule, combinator models.Combinator, tags []string) error {
	name = strings.TrimSpace(name)
	if err := validate(name, rules, combinator); err != nil {
		return err
	}
	if m.nameTaken(name, id) {
		return fmt.Errorf("%w: '%s' (names are case-insensitive)", ErrDuplicateName, name)
	}

	for i, p := range m.presets {
		if p.ID == id {
			m.presets[i].Name = name
			m.presets[i].Description = strings.TrimSpace(description)
			m.presets[i].Rules = append([]models.FilterRule(nil), rules...)
			m.presets[i].Combinator = combinator
			m.presets[i].Tags = tags
			m.presets[i].UpdatedAt = m.now()
			if err := m.Save(); err != nil {
				return fmt.Errorf("failed to save preset: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: '%s'", ErrNotFound, id)
}

// Delete deletes a preset by ID
func (m *Manager) Delete(id string) error {
	for i, p := range m.presets {
		if p.ID == id {
			m.presets = append(m.presets[:i], m.presets[i+1:]...)
			if err := m.Save(); err != nil {
				return fmt.Errorf("failed to save presets after deletion: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: '%s'", ErrNotFound, id)
}

// Get returns a preset by ID
func (m *Manager) Get(id string) (*models.Preset, error) {
	for _, p := range m.presets {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: '%s'", ErrNotFound, id)
}

// GetByName returns a preset by name, ignoring case
func (m *Manager) GetByName(name string) (*models.Preset, error) {
	for _, p := range m.presets {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: '%s'", ErrNotFound, name)
}

// List returns all presets in insertion order
func (m *Manager) List() []models.Preset {
	out := make([]models.Preset, len(m.presets))
	copy(out, m.presets)
	return out
}

// Search searches presets by name, description, tags or rule columns
func (m *Manager) Search(query string) []models.Preset {
	if query == "" {
		return m.List()
	}

	query = strings.ToLower(query)
	var results []models.Preset

	for _, p := range m.presets {
		if strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.Description), query) {
			results = append(results, p)
			continue
		}
		if containsFold(p.Tags, query) || rulesMention(p.Rules, query) {
			results = append(results, p)
		}
	}

	return results
}

func containsFold(items []string, query string) bool {
	for _, s := range items {
		if strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}
	return false
}

func rulesMention(rules []models.FilterRule, query string) bool {
	for _, r := range rules {
		if strings.Contains(strings.ToLower(r.Column), query) {
			return true
		}
	}
	return false
}

// MarkUsed updates usage statistics for a preset
func (m *Manager) MarkUsed(id string) error {
	for i, p := range m.presets {
		if p.ID == id {
			m.presets[i].UsageCount++
			m.presets[i].LastUsed = m.now()
			if err := m.Save(); err != nil {
				return fmt.Errorf("failed to save usage statistics: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: '%s'", ErrNotFound, id)
}

// MostUsed returns the most frequently used presets
func (m *Manager) MostUsed(limit int) []models.Preset {
	sorted := m.List()

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UsageCount > sorted[j].UsageCount
	})

	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}

	return sorted
}

// ExportToCSV exports all presets to a CSV file
func (m *Manager) ExportToCSV(customPath ...string) (string, error) {
	if len(m.presets) == 0 {
		return "", fmt.Errorf("no presets to export")
	}

	path := filepath.Join(filepath.Dir(m.path), "presets.csv")
	if len(customPath) > 0 && customPath[0] != "" {
		path = customPath[0]
	}

	if err := export.PresetsToCSV(m.presets, path); err != nil {
		return "", fmt.Errorf("failed to export presets to CSV: %w", err)
	}

	return path, nil
}

// ExportToJSON exports all presets to a JSON file
func (m *Manager) ExportToJSON(customPath ...string) (string, error) {
	if len(m.presets) == 0 {
		return "", fmt.Errorf("no presets to export")
	}

	path := filepath.Join(filepath.Dir(m.path), "presets.json")
	if len(customPath) > 0 && customPath[0] != "" {
		path = customPath[0]
	}

	if err := export.PresetsToJSON(m.presets, path); err != nil {
		return "", fmt.Errorf("failed to export presets to JSON: %w", err)
	}

	return path, nil
}
