package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/buyerdesk/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "buyerdesk",
		Usage:   "Buyer-support messaging client for the wholesale catalogue portal",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				Value:   "",
			},
		},
		Commands: []*cli.Command{
			cmd.WatchCommand(),
			cmd.ChatCommand(),
			cmd.ConfigCommand(),
			cmd.ServeCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
