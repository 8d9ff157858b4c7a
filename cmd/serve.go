package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/buyerdesk/internal/devserver"
	"github.com/buyerdesk/pkg/models"
)

// ServeCommand returns the serve command: the in-memory reference backend
// for local development. It prints ready-made dev tokens so a watch/chat
// session can be pointed at it immediately.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the in-memory development backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: ":8787",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	adminToken, err := devserver.DevToken(models.RoleAdmin, "admin-1", "Support Admin")
	if err != nil {
		return fmt.Errorf("failed to mint admin token: %w", err)
	}
	buyerToken, err := devserver.DevToken(models.RoleBuyer, "buyer-1", "Demo Buyer")
	if err != nil {
		return fmt.Errorf("failed to mint buyer token: %w", err)
	}

	addr := c.String("addr")
	fmt.Printf("Dev backend listening on %s\n\n", addr)
	fmt.Printf("Admin token:\n%s\n\n", adminToken)
	fmt.Printf("Buyer token:\n%s\n", buyerToken)

	e := devserver.New(devserver.NewStore(), logger)
	return e.Start(addr)
}
