package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

var (
	cPurple     = lipgloss.Color("99")
	cCyan       = lipgloss.Color("39")
	cNeonGreen  = lipgloss.Color("118")
	cRed        = lipgloss.Color("203")
	cGold       = lipgloss.Color("220")
	cGray       = lipgloss.Color("240")
	cBrightGray = lipgloss.Color("246")
	cLightGray  = lipgloss.Color("250")
	cWhite      = lipgloss.Color("255")
	cHighlight  = lipgloss.Color("57")
	cField      = lipgloss.Color("63")

	styleTitleBar = lipgloss.NewStyle().
			Foreground(cWhite).
			Background(cPurple).
			Bold(true).
			Padding(0, 1)

	styleTitleLink = lipgloss.NewStyle().
			Foreground(cLightGray).
			Underline(true)

	styleID = lipgloss.NewStyle().Foreground(cGold).Bold(true)

	styleSummary  = lipgloss.NewStyle().Foreground(cWhite)
	styleResolved = lipgloss.NewStyle().Foreground(cBrightGray).Strikethrough(true)

	styleSelected = lipgloss.NewStyle().
			Background(cHighlight).
			Foreground(cWhite).
			Bold(true)

	styleEmptySquare = lipgloss.NewStyle().Foreground(cGray)

	styleField = lipgloss.NewStyle().
			Foreground(cField).
			Bold(true)

	styleVal = lipgloss.NewStyle().Foreground(cLightGray)

	styleMuted = lipgloss.NewStyle().Foreground(cBrightGray)

	styleLoadMore = lipgloss.NewStyle().Foreground(cCyan).Bold(true)

	styleError = lipgloss.NewStyle().
			Foreground(cRed).
			Bold(true)

	styleToast = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cNeonGreen).
			Foreground(cWhite).
			Padding(0, 1)

	// Help overlay styles
	styleHelpOverlay = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(cPurple).
				Padding(1, 2)

	styleHelpTitle = lipgloss.NewStyle().
			Foreground(cGold).
			Bold(true)

	styleHelpDivider = lipgloss.NewStyle().
				Foreground(cPurple)

	styleHelpSectionHeader = lipgloss.NewStyle().
				Foreground(cField).
				Bold(true)

	styleHelpKey = lipgloss.NewStyle().
			Foreground(cCyan).
			Bold(true)

	styleHelpDesc = lipgloss.NewStyle().
			Foreground(cLightGray)

	styleHelpFooter = lipgloss.NewStyle().
			Foreground(cBrightGray).
			Italic(true)

	// Footer bar styles
	styleKeyPill = lipgloss.NewStyle().
			Background(cPurple).
			Foreground(cWhite).
			Bold(true)

	styleKeyDesc = lipgloss.NewStyle().
			Foreground(cBrightGray)

	// Configuration form styles
	styleFormLabel = lipgloss.NewStyle().
			Foreground(cField).
			Bold(true).
			Width(16)

	styleFormLabelFocused = styleFormLabel.Foreground(cGold)

	styleFormOption = lipgloss.NewStyle().
			Foreground(cLightGray)

	styleFormOptionSelected = lipgloss.NewStyle().
				Foreground(cCyan).
				Bold(true)

	styleFormButton = lipgloss.NewStyle().
			Foreground(cWhite).
			Background(cGray).
			Padding(0, 2)

	styleFormButtonFocused = styleFormButton.Background(cPurple).Bold(true)

	styleFormHint = lipgloss.NewStyle().
			Foreground(cGray).
			Italic(true)

	styleSuggestion = lipgloss.NewStyle().
			Foreground(cLightGray).
			PaddingLeft(2)

	styleSuggestionSelected = lipgloss.NewStyle().
				Foreground(cWhite).
				Background(cHighlight).
				PaddingLeft(2)
)

// squareStyle colours the issue marker with the field colour from YouTrack.
func squareStyle(foreground, background string) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	if foreground != "" {
		style = style.Foreground(lipgloss.Color(foreground))
	}
	if background != "" {
		style = style.Background(lipgloss.Color(background))
	}
	return style
}

func buildMarkdownRenderer(format string, width int) func(string) string {
	fallback := func(input string) string {
		return wordwrap.String(input, width)
	}

	style := strings.ToLower(strings.TrimSpace(format))
	if style == "" || style == "rich" || style == "dark" {
		style = "dark"
	}
	if style == "plain" {
		return fallback
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fallback
	}
	return func(input string) string {
		out, err := renderer.Render(input)
		if err != nil {
			return fallback(input)
		}
		return strings.TrimSpace(out)
	}
}
