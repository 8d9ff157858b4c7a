package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/buyerdesk/internal/chat"
	"github.com/buyerdesk/pkg/models"
)

// WatchCommand returns the watch command: a live, polling view of the
// viewer's conversations (admin) or their support thread (buyer).
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Follow support conversations, refreshing by polling",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "buyer",
				Aliases: []string{"b"},
				Usage:   "Open this buyer's thread immediately (admin only)",
			},
		},
		Action: runWatch,
	}
}

func runWatch(c *cli.Context) error {
	s, err := newSetup(c)
	if err != nil {
		return err
	}

	coord := s.coord
	coord.Subscribe(func(ev chat.Event) {
		render(coord.Snapshot(), ev)
	})

	if buyer := c.String("buyer"); buyer != "" {
		if !s.session.IsAdmin() {
			return fmt.Errorf("--buyer is an admin option")
		}
		coord.OpenThread(context.Background(), buyer)
	} else if !s.session.IsAdmin() {
		coord.OpenThread(context.Background(), "")
	}

	sched := chat.NewScheduler(coord, chat.PollConfig{
		Tick:        s.cfg.Poll.Tick,
		MinInterval: s.cfg.Poll.MinInterval,
	}, s.logger)
	sched.Start()
	defer sched.Stop()

	fmt.Printf("Watching as %s (%s). Press Ctrl+C to stop.\n", s.session.Name, s.session.Role)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	fmt.Println("\nStopping.")
	return nil
}

func render(snap chat.Snapshot, ev chat.Event) {
	switch ev.Kind {
	case chat.EventConversations:
		fmt.Printf("--- conversations (%d unread) ---\n", snap.UnreadConversations)
		for _, conv := range snap.Conversations {
			marker := " "
			if conv.HasUnread {
				marker = "*"
			}
			fmt.Printf("%s %-20s %-24s %s\n", marker, conv.BuyerID, conv.BuyerName, conv.LastMessage)
		}
	case chat.EventThread:
		if snap.Thread == nil {
			return
		}
		fmt.Printf("--- thread with %s ---\n", snap.Thread.BuyerName)
		for _, msg := range snap.Thread.Messages {
			fmt.Printf("[%s] %-5s: %s\n", msg.CreatedAt.Format("15:04:05"), msg.SenderRole, msg.Content)
		}
	case chat.EventUnread:
		if snap.Role == models.RoleBuyer {
			fmt.Printf("--- unread messages: %d ---\n", snap.UnreadCount)
		}
	case chat.EventError:
		if snap.Err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", snap.Err)
		}
	case chat.EventClosed:
		fmt.Println("--- thread closed ---")
	}
}
