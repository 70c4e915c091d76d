package storecli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atelierline/storesync/libbus"
	"github.com/atelierline/storesync/storetypes"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Support chat: list, follow, and send.",
}

var chatListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			conversations, err := e.chat.ListConversations(ctx)
			if err != nil {
				return err
			}
			for _, c := range conversations {
				printf("%s  unread=%d  last=%s", c.ID, c.UnreadCount, c.LastMessageAt.Format(time.RFC3339))
			}
			return nil
		})
	},
}

var chatNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new conversation.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			conversation, err := e.chat.CreateConversation(ctx)
			if err != nil {
				return err
			}
			printf("%s", conversation.ID)
			return nil
		})
	},
}

var chatOpenCmd = &cobra.Command{
	Use:   "open <conversation-id>",
	Short: "Open a conversation and follow new messages until interrupted.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			updates := make(chan []byte, 16)
			sub, err := e.bus.Stream(ctx, libbus.SubjectChatUpdated, updates)
			if err != nil {
				return err
			}
			defer sub.Unsubscribe()

			if err := e.chat.Open(ctx, args[0]); err != nil {
				return err
			}
			defer e.chat.Close()

			printed := printMessages(e.chat.Messages(), 0)
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-updates:
					printed = printMessages(e.chat.Messages(), printed)
				}
			}
		})
	},
}

var chatSendCmd = &cobra.Command{
	Use:   "send <conversation-id> <text>",
	Short: "Send a message.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			if err := e.chat.Open(ctx, args[0]); err != nil {
				return err
			}
			defer e.chat.Close()

			message, err := e.chat.Send(ctx, args[1])
			if err != nil {
				return err
			}
			printf("sent #%d", message.ID)
			return nil
		})
	},
}

var chatSendImageCmd = &cobra.Command{
	Use:   "send-image <conversation-id> <file>",
	Short: "Send an image attachment (up to 5 MB).",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			file, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer file.Close()
			info, err := file.Stat()
			if err != nil {
				return err
			}

			if err := e.chat.Open(ctx, args[0]); err != nil {
				return err
			}
			defer e.chat.Close()

			message, err := e.chat.SendImage(ctx, filepath.Base(args[1]), file, info.Size())
			if err != nil {
				return err
			}
			printf("sent #%d (%s)", message.ID, message.ImageRef)
			return nil
		})
	},
}

// printMessages prints messages with id greater than afterID and returns the
// highest id printed.
func printMessages(messages []storetypes.Message, afterID int64) int64 {
	highest := afterID
	for _, msg := range messages {
		if msg.ID <= afterID {
			continue
		}
		body := msg.Content
		if msg.ImageRef != "" {
			body = fmt.Sprintf("[image %s] %s", msg.ImageRef, body)
		}
		printf("[%s] %s: %s", msg.CreatedAt.Format("15:04:05"), msg.SenderID, body)
		highest = msg.ID
	}
	return highest
}

func init() {
	chatCmd.AddCommand(chatListCmd, chatNewCmd, chatOpenCmd, chatSendCmd, chatSendImageCmd)
}
