package tui

import "github.com/charmbracelet/lipgloss"

var (
	// TitleStyle is used for step titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("35")). // Green
			MarginBottom(1)

	// StepBarStyle is used for the "Step 2 of 4" breadcrumb.
	StepBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")) // Gray

	// SelectedItemStyle is used for the row under the cursor.
	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42")). // Light green
				Bold(true)

	// NormalItemStyle is used for non-selected rows.
	NormalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")) // Light gray

	// DimStyle is used for secondary columns (crop, hectares).
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	// ErrorStyle is used for fatal error screens.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	// ToastStyle is used for the transient status line at the bottom.
	ToastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Orange

	// SuccessStyle is used for the submission result.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	// PromptStyle is used for input labels.
	PromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")). // Light blue
			MarginBottom(1)

	// HelpStyle is used for help text.
	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")). // Dark gray
			MarginTop(1)
)
