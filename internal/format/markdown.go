package format

import "github.com/charmbracelet/glamour"

const style = "dark"

func FormatMarkdown(text string) (string, error) {
	return glamour.Render(text, style)
}

// FormatMarkdownWidth renders text wrapped to width columns. A width of zero
// or less keeps glamour's default wrapping.
func FormatMarkdownWidth(text string, width int) (string, error) {
	if width <= 0 {
		return FormatMarkdown(text)
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(text)
}
