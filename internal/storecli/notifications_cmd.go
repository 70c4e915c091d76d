package storecli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var flagRecentCount int

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notif"},
	Short:   "Activity feed: list, mark read, delete.",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the most recent notifications and the unread badge.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			if err := e.notifications.Refresh(ctx); err != nil {
				return err
			}
			for _, n := range e.notifications.Recent(flagRecentCount) {
				marker := " "
				if !n.Read {
					marker = "*"
				}
				printf("%s [%s] %s  %s", marker, n.Category, n.Title, n.CreatedAt.Format(time.RFC3339))
			}
			printf("%d unread", e.notifications.Unread())
			return nil
		})
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read [notification-id]",
	Short: "Mark one notification read, or all of them when no id is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			if err := e.notifications.Refresh(ctx); err != nil {
				return err
			}
			if len(args) == 0 {
				return e.notifications.MarkAllRead(ctx)
			}
			return e.notifications.MarkRead(ctx, args[0])
		})
	},
}

var notificationsDeleteCmd = &cobra.Command{
	Use:   "delete <notification-id>",
	Short: "Delete a notification.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			return e.notifications.Delete(ctx, args[0])
		})
	},
}

func init() {
	notificationsListCmd.Flags().IntVar(&flagRecentCount, "recent", 10, "how many entries to show")
	notificationsCmd.AddCommand(notificationsListCmd, notificationsReadCmd, notificationsDeleteCmd)
}
