package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/buyerdesk/internal/config"
)

// ConfigCommand returns the config command: scaffolding a config file and
// checking the effective settings before a watch session starts polling
// against them.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a starter configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "buyerdesk.toml",
					},
				},
				Action: runConfigInit,
			},
			{
				Name:   "validate",
				Usage:  "Validate and show the effective configuration",
				Action: runConfigValidate,
			},
		},
	}
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("output")

	if err := config.InitConfig(outputPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Created configuration file at %s\n", outputPath)
	fmt.Println("Set server.base_url and server.token before running watch.")
	return nil
}

func runConfigValidate(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Println("Configuration is valid")
	fmt.Printf("  backend:  %s\n", cfg.Server.BaseURL)
	fmt.Printf("  polling:  tick %s, min interval %s\n", cfg.Poll.Tick, cfg.Poll.MinInterval)
	fmt.Printf("  http:     timeout %s, %.0f req/s (burst %d)\n", cfg.HTTP.Timeout, cfg.HTTP.Rate, cfg.HTTP.Burst)
	fmt.Printf("  logging:  %s\n", cfg.Log.Level)
	return nil
}
