package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// ChatCommand returns one-shot messaging operations. These drive the
// transport directly; the watch command is where the polling coordinator
// lives.
func ChatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "One-shot messaging operations",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List conversations (admin)",
				Action: runChatList,
			},
			{
				Name:      "send",
				Usage:     "Send a message; admins must pass --buyer",
				ArgsUsage: "MESSAGE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "buyer", Aliases: []string{"b"}, Usage: "Target buyer id (admin only)"},
				},
				Action: runChatSend,
			},
			{
				Name:      "read",
				Usage:     "Mark a thread as read",
				ArgsUsage: "CHAT_ID",
				Action:    runChatRead,
			},
			{
				Name:      "delete",
				Usage:     "Remove a buyer's conversation from the admin list",
				ArgsUsage: "BUYER_ID",
				Action:    runChatDelete,
			},
			{
				Name:      "clear",
				Usage:     "Empty a thread for both parties (requires --yes)",
				ArgsUsage: "CHAT_ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "Confirm the clear"},
				},
				Action: runChatClear,
			},
		},
	}
}

func runChatList(c *cli.Context) error {
	s, err := newSetup(c)
	if err != nil {
		return err
	}
	conversations, err := s.client.ListConversations(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}
	for _, conv := range conversations {
		marker := " "
		if conv.HasUnread {
			marker = "*"
		}
		fmt.Printf("%s %-20s %-24s %s\n", marker, conv.BuyerID, conv.BuyerName, conv.LastMessage)
	}
	return nil
}

func runChatSend(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("message text is required")
	}
	s, err := newSetup(c)
	if err != nil {
		return err
	}
	buyer := c.String("buyer")
	if s.session.IsAdmin() && buyer == "" {
		return fmt.Errorf("--buyer is required for admin sends")
	}
	msg, err := s.client.SendMessage(c.Context, c.Args().First(), buyer)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	fmt.Printf("Sent message %s at %s\n", msg.ID, msg.CreatedAt.Format("15:04:05"))
	return nil
}

func runChatRead(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("chat id is required")
	}
	s, err := newSetup(c)
	if err != nil {
		return err
	}
	if err := s.client.MarkRead(c.Context, c.Args().First()); err != nil {
		return fmt.Errorf("failed to mark read: %w", err)
	}
	fmt.Println("Marked as read")
	return nil
}

func runChatDelete(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("buyer id is required")
	}
	s, err := newSetup(c)
	if err != nil {
		return err
	}
	if err := s.client.DeleteConversation(c.Context, c.Args().First()); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	fmt.Println("Conversation removed from the admin list")
	return nil
}

func runChatClear(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("chat id is required")
	}
	if !c.Bool("yes") {
		return fmt.Errorf("clearing empties the thread for both parties; pass --yes to confirm")
	}
	s, err := newSetup(c)
	if err != nil {
		return err
	}
	if err := s.client.ClearChat(c.Context, c.Args().First()); err != nil {
		return fmt.Errorf("failed to clear chat: %w", err)
	}
	fmt.Println("Thread cleared")
	return nil
}
