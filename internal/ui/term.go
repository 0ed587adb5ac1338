package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/athro-ai/athro/internal/study"
)

// Color definitions for consistent styling across the UI.
var (
	colorSession  = color.New(color.FgCyan, color.Bold)
	colorQuiz     = color.New(color.FgMagenta, color.Bold)
	colorRevision = color.New(color.FgYellow)

	// Slot-derived sessions are planned, not booked.
	colorSynthetic = color.New(color.FgCyan, color.Faint)

	colorHeader = color.New(color.Bold)
	colorStats  = color.New(color.FgGreen)
	colorWarn   = color.New(color.FgRed)
	colorMuted  = color.New(color.FgWhite, color.Faint)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// EnableColor enables color output (if terminal supports it).
func EnableColor() {
	color.NoColor = false
}

func formatType(ev *study.CalendarEvent) string {
	switch {
	case ev.IsSynthetic():
		return colorSynthetic.Sprint("[P]")
	case ev.Type == study.TypeQuiz:
		return colorQuiz.Sprint("[Q]")
	case ev.Type == study.TypeRevision:
		return colorRevision.Sprint("[R]")
	}
	return colorSession.Sprint("[S]")
}

func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

func formatStats(s string) string {
	return colorStats.Sprint(s)
}

func formatWarn(s string) string {
	return colorWarn.Sprint(s)
}

func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}
