package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/buyerdesk/internal/api"
	"github.com/buyerdesk/internal/chat"
	"github.com/buyerdesk/internal/config"
	"github.com/buyerdesk/internal/session"
)

// setup wires the pieces every messaging command needs: config, logger,
// viewer session, transport and a coordinator for the viewer's role.
type setup struct {
	cfg     *config.Config
	logger  zerolog.Logger
	session *session.Session
	client  *api.Client
	coord   *chat.Coordinator
}

func newSetup(c *cli.Context) (*setup, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	sess, err := session.Parse(cfg.Server.Token)
	if err != nil {
		return nil, fmt.Errorf("cannot start session: %w", err)
	}

	client, err := api.NewClient(api.Config{
		BaseURL: cfg.Server.BaseURL,
		Token:   sess.Token,
		Timeout: cfg.HTTP.Timeout,
		Rate:    cfg.HTTP.Rate,
		Burst:   cfg.HTTP.Burst,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &setup{
		cfg:     cfg,
		logger:  logger,
		session: sess,
		client:  client,
		coord:   chat.New(client, sess.Role, logger),
	}, nil
}
