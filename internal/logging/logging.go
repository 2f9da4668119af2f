// Package logging routes structured logs to a debug file. The terminal
// belongs to the chat UI, so nothing is ever logged to stdout or stderr.
package logging

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
)

const prefix = "studybuddy"

// Setup installs the default slog logger. With an empty path logs are
// discarded. The returned close function must be called on exit.
func Setup(path string, level slog.Level) (func() error, error) {
	if path == "" {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return func() error { return nil }, nil
	}

	f, err := tea.LogToFile(path, prefix)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})))
	return f.Close, nil
}
