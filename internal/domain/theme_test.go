package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveTheme(t *testing.T) {
	tests := []struct {
		name     string
		prefs    DisplayPreferences
		expected []string
	}{
		{"default", DisplayPreferences{TextSize: 1}, []string{"text-size-1"}},
		{"dark", DisplayPreferences{TextSize: 2, DarkMode: true}, []string{"dark-mode", "text-size-2"}},
		{"both", DisplayPreferences{TextSize: 0, DarkMode: true, HighContrast: true}, []string{"high-contrast", "dark-mode", "text-size-0"}},
		{"too small", DisplayPreferences{TextSize: -3}, []string{"text-size-0"}},
		{"too large", DisplayPreferences{TextSize: 9}, []string{"text-size-3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			theme := ResolveTheme(tt.prefs)
			assert.Equal(t, tt.expected, theme.Classes)
			assert.Len(t, theme.Rules, 3)
		})
	}
}

func TestThemeCSS(t *testing.T) {
	css := ResolveTheme(DisplayPreferences{}).CSS()

	assert.Contains(t, css, ":root {\n  --text-color: #333;\n")
	assert.Contains(t, css, "body.dark-mode {\n")
	assert.Contains(t, css, "--border-color: #ffff00;")
}
