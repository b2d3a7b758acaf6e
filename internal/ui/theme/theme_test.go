package theme

import (
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"default", "default", true},
		{"Dark", "default", true},
		{" light ", "light", true},
		{"catppuccin", "catppuccin-mocha", true},
		{"CATPPUCCIN-MOCHA", "catppuccin-mocha", true},
		{"solarized", "", false},
	}
	for _, tt := range tests {
		th, ok := Lookup(tt.name)
		if ok != tt.ok || th.Name != tt.want {
			t.Errorf("Lookup(%q) = %q, %v; want %q, %v", tt.name, th.Name, ok, tt.want, tt.ok)
		}
	}
}

func TestByNameFallsBackToDefault(t *testing.T) {
	if got := ByName("nope").Name; got != "default" {
		t.Errorf("ByName(nope) = %q", got)
	}
}

func TestNames(t *testing.T) {
	if got := strings.Join(Names(), ","); got != "catppuccin-mocha,default,light" {
		t.Errorf("Names() = %s", got)
	}
}

func TestPalettesAreComplete(t *testing.T) {
	for _, name := range Names() {
		th := ByName(name)
		colors := map[string]string{
			"Foreground":   string(th.Foreground),
			"Border":       string(th.Border),
			"Muted":        string(th.Muted),
			"Error":        string(th.Error),
			"TableHeader":  string(th.TableHeader),
			"NumberCell":   string(th.NumberCell),
			"RuleColumn":   string(th.RuleColumn),
			"RuleOperator": string(th.RuleOperator),
		}
		for field, c := range colors {
			if c == "" {
				t.Errorf("%s: %s is empty", name, field)
			}
		}
	}
}
