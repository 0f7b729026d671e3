package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var notifyCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notify"},
	Short:   "Manage notifications",
}

var notifyListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your notifications",
	RunE:    runNotifyList,
}

var notifyReadCmd = &cobra.Command{
	Use:   "read <notification-id>",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotifyRead,
}

var notifyReadAllCmd = &cobra.Command{
	Use:   "readall",
	Short: "Mark all notifications as read",
	RunE:  runNotifyReadAll,
}

func init() {
	notifyCmd.AddCommand(notifyListCmd)
	notifyCmd.AddCommand(notifyReadCmd)
	notifyCmd.AddCommand(notifyReadAllCmd)
}

func runNotifyList(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	st, err := loggedInStore(ctx)
	if err != nil {
		return err
	}
	if err := st.RefreshNotifications(ctx); err != nil {
		return err
	}

	items := st.Notifications()
	if len(items) == 0 {
		fmt.Println("No notifications.")
		return nil
	}
	for _, n := range items {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Printf("%s %s  %s  %s\n", marker, n.ID, n.CreatedAt.Format("2006-01-02 15:04"), n.Message)
	}
	if unread := st.UnreadCount(); unread > 0 {
		fmt.Printf("\n%d unread\n", unread)
	}
	return nil
}

func runNotifyRead(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	st, err := loggedInStore(ctx)
	if err != nil {
		return err
	}

	if err := st.MarkNotificationRead(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("Marked as read.")
	return nil
}

func runNotifyReadAll(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	st, err := loggedInStore(ctx)
	if err != nil {
		return err
	}

	if err := st.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}
	fmt.Println("All notifications marked as read.")
	return nil
}
