package render

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Styles groups the lipgloss styles used for human-readable output
type Styles struct {
	Header  lipgloss.Style
	Title   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Failure lipgloss.Style
	Muted   lipgloss.Style
}

// PlainStyles renders text unchanged
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header:  plain,
		Title:   plain,
		Success: plain,
		Warning: plain,
		Failure: plain,
		Muted:   plain,
	}
}

// ColorStyles are used when writing to a colour-capable terminal
func ColorStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("76")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Failure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// IsTerminal returns true if stdout is connected to a terminal (TTY).
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShouldUseColor respects NO_COLOR, CLICOLOR and CLICOLOR_FORCE, falling back
// to whether stdout is a TTY.
func ShouldUseColor() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	if _, exists := os.LookupEnv("CLICOLOR_FORCE"); exists {
		return true
	}
	return IsTerminal()
}

// DefaultStyles picks colour or plain styles for stdout
func DefaultStyles() *Styles {
	st := PlainStyles()
	if ShouldUseColor() {
		st = ColorStyles()
	}
	return &st
}
