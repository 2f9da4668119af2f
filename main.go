package main

import (
	"os"

	"github.com/klemjul/studybuddy/cmd"
	"github.com/klemjul/studybuddy/internal/app"
)

func main() {
	app := app.NewDefaultApp()
	if err := cmd.RootCommand(app).Execute(); err != nil {
		os.Exit(1)
	}
}
