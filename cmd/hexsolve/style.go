package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var styles = struct {
	title lipgloss.Style
	win   lipgloss.Style
	loss  lipgloss.Style
	muted lipgloss.Style
	err   lipgloss.Style
}{
	title: lipgloss.NewStyle().Bold(true),
	win:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2CD7C7")),
	loss:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F4D03F")),
	muted: lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7A80")),
	err:   lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C")),
}

// interactive reports whether stdin is a terminal.
func interactive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
