package theme

import "testing"

func TestNextCyclesThroughAllThemes(t *testing.T) {
	name := "default"
	seen := map[string]bool{}
	for i := 0; i < len(Names()); i++ {
		th := Next(name)
		seen[th.Name] = true
		name = th.Name
	}

	if name != "default" {
		t.Errorf("expected to cycle back to default, got %s", name)
	}
	for _, n := range Names() {
		if !seen[n] {
			t.Errorf("theme %s was never reached", n)
		}
	}
}

func TestGetThemeFallsBackToDefault(t *testing.T) {
	if th := GetTheme("no-such-theme"); th.Name != "default" {
		t.Errorf("expected default theme, got %s", th.Name)
	}
	if th := GetTheme("gruvbox"); th.Name != "gruvbox-dark" {
		t.Errorf("expected alias to resolve, got %s", th.Name)
	}
}

func TestThemesHaveSyntaxStyle(t *testing.T) {
	for _, n := range Names() {
		if GetTheme(n).SyntaxStyle == "" {
			t.Errorf("theme %s has no syntax style", n)
		}
	}
}
