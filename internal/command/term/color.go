package term

import (
	"github.com/fatih/color"
)

var (
	GreenHighlight  = color.New(color.FgGreen).SprintFunc()
	RedHighlight    = color.New(color.FgRed).SprintFunc()
	YellowHighlight = color.New(color.FgYellow).SprintFunc()
	DimHighlight    = color.New(color.Faint).SprintFunc()

	Underline = color.New(color.Underline).SprintFunc()

	Highlight = GreenHighlight
)

// ColoredAvailability returns a colored "Available"/"Unavailable" label.
func ColoredAvailability(available bool) string {
	if available {
		return GreenHighlight("Available")
	}

	return RedHighlight("Unavailable")
}

// ColoredToolStatus returns a colored "installed"/"missing" label.
func ColoredToolStatus(found bool) string {
	if found {
		return GreenHighlight("installed")
	}

	return RedHighlight("missing")
}
