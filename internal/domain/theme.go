package domain

import (
	"fmt"
	"strings"
)

const (
	MinTextSize = 0
	MaxTextSize = 3
)

type DisplayPreferences struct {
	TextSize     int  `json:"textSize"`
	HighContrast bool `json:"highContrast"`
	DarkMode     bool `json:"darkMode"`
}

type CSSVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type ThemeRule struct {
	Selector  string   `json:"selector"`
	Variables []CSSVar `json:"variables"`
}

// Theme is what the page applies for a set of preferences: classes on
// <body> plus one style block holding every theme's custom properties.
// Both toggles may be on; high contrast is declared last and wins.
type Theme struct {
	Classes []string    `json:"classes"`
	Rules   []ThemeRule `json:"rules"`
}

var themeRules = []ThemeRule{
	{
		Selector: ":root",
		Variables: []CSSVar{
			{"--text-color", "#333"},
			{"--bg-color", "#f8f9fa"},
			{"--primary-color", "#4a6fa5"},
			{"--secondary-color", "#3498db"},
			{"--accent-color", "#ff6b6b"},
			{"--surface-color", "#ffffff"},
			{"--card-color", "#ffffff"},
			{"--border-color", "#e0e0e0"},
			{"--shadow-color", "rgba(0,0,0,0.1)"},
		},
	},
	{
		Selector: "body.dark-mode",
		Variables: []CSSVar{
			{"--text-color", "#e0e0e0"},
			{"--bg-color", "#121212"},
			{"--primary-color", "#bb86fc"},
			{"--secondary-color", "#03dac6"},
			{"--accent-color", "#ff7597"},
			{"--surface-color", "#1e1e1e"},
			{"--card-color", "#2d2d2d"},
			{"--border-color", "#444"},
			{"--shadow-color", "rgba(0,0,0,0.3)"},
		},
	},
	{
		Selector: "body.high-contrast",
		Variables: []CSSVar{
			{"--text-color", "#ffffff"},
			{"--bg-color", "#000000"},
			{"--primary-color", "#ffff00"},
			{"--secondary-color", "#00ffff"},
			{"--accent-color", "#ff00ff"},
			{"--surface-color", "#000000"},
			{"--card-color", "#000000"},
			{"--border-color", "#ffff00"},
			{"--shadow-color", "rgba(255,255,0,0.3)"},
		},
	},
}

func ResolveTheme(p DisplayPreferences) Theme {
	size := p.TextSize
	if size < MinTextSize {
		size = MinTextSize
	}
	if size > MaxTextSize {
		size = MaxTextSize
	}

	var classes []string
	if p.HighContrast {
		classes = append(classes, "high-contrast")
	}
	if p.DarkMode {
		classes = append(classes, "dark-mode")
	}
	classes = append(classes, fmt.Sprintf("text-size-%d", size))

	rules := make([]ThemeRule, len(themeRules))
	copy(rules, themeRules)
	return Theme{Classes: classes, Rules: rules}
}

func (t Theme) CSS() string {
	var b strings.Builder
	for _, r := range t.Rules {
		b.WriteString(r.Selector)
		b.WriteString(" {\n")
		for _, v := range r.Variables {
			fmt.Fprintf(&b, "  %s: %s;\n", v.Name, v.Value)
		}
		b.WriteString("}\n")
	}
	return b.String()
}
