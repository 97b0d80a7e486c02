package cli

// Default values for CLI output.
const (
	// MaxDescriptionLength is the maximum length of a package description to display.
	MaxDescriptionLength = 50
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
)
