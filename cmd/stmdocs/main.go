package main

import (
	"log/slog"
	"os"

	"github.com/kl543/stmdocs/cmd/stmdocs/commands"
	ferrors "github.com/kl543/stmdocs/internal/foundation/errors"
)

func main() {
	var cli commands.CLI
	g := &commands.Global{Stdout: os.Stdout, Stderr: os.Stderr}
	if err := commands.Execute(&cli, g, os.Args[1:]); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
