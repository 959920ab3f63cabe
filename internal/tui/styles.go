package tui

import (
	"fmt"
	"strings"

	"github.com/dbuxton/simple-podcast-sync/internal/theme"
)

// GetStyles returns current themed styles
func GetStyles() theme.Styles {
	return theme.Current
}

// TruncateString truncates a string to max length with ellipsis
func TruncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// PadRight pads a string to a specific width
func PadRight(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

// PadLeft pads a string on the left to a specific width
func PadLeft(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	return strings.Repeat(" ", width-len(s)) + s
}

// formatMB formats a size in megabytes for the device file list
func formatMB(mb float64) string {
	return fmt.Sprintf("%.2f MB", mb)
}
