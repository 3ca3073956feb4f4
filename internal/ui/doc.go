// Package ui styles terminal output for the CLI with [lipgloss].
//
// Colors degrade to plain text when output is not a terminal.
package ui
