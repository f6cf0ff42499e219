package main

import (
	"fmt"
	"os"

	"clibundle/internal/app"
	"clibundle/internal/cli"
	"clibundle/internal/ui"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, ui.Bad.Sprint("error: ")+err.Error())
		os.Exit(app.ExitCode(err))
	}
}
