package storecli

import (
	"context"
	"encoding/json"

	"github.com/atelierline/storesync/libbus"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream store events (collection changes, chat updates, notices) until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			subjects := []string{
				libbus.SubjectCartChanged,
				libbus.SubjectWishlistChanged,
				libbus.SubjectCompareChanged,
				libbus.SubjectChatUpdated,
				libbus.SubjectNotifications,
				libbus.SubjectUserNotice,
			}

			type event struct {
				subject string
				data    []byte
			}
			events := make(chan event, 64)
			for _, subject := range subjects {
				subject := subject
				ch := make(chan []byte, 16)
				sub, err := e.bus.Stream(ctx, subject, ch)
				if err != nil {
					return err
				}
				defer sub.Unsubscribe()
				go func() {
					for data := range ch {
						select {
						case events <- event{subject: subject, data: data}:
						case <-ctx.Done():
							return
						}
					}
				}()
			}

			// The notification poller keeps the feed subject alive while we
			// watch.
			e.notifications.Start(ctx)
			defer e.notifications.Stop()

			for {
				select {
				case <-ctx.Done():
					return nil
				case ev := <-events:
					if ev.subject == libbus.SubjectUserNotice {
						var notice libbus.Notice
						if err := json.Unmarshal(ev.data, &notice); err == nil {
							printf("notice(%s): %s", notice.Level, notice.Message)
							continue
						}
					}
					printf("%s %s", ev.subject, string(ev.data))
				}
			}
		})
	},
}
