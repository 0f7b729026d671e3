package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projectflow/projectflow/internal/aggregate"
	"github.com/projectflow/projectflow/internal/model"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show cross-project rollups",
	RunE:  runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	st, err := loggedInStore(ctx)
	if err != nil {
		return err
	}

	// Best effort; the dashboard still renders without the unread count.
	_ = st.RefreshNotifications(ctx)

	stats := aggregate.ForDashboard(st.Projects())

	fmt.Printf("Projects: %d\n", stats.TotalProjects)
	order := []model.ProjectStatus{
		model.ProjectNotStarted,
		model.ProjectInProgress,
		model.ProjectCompleted,
		model.ProjectOnHold,
		model.ProjectCancelled,
	}
	for _, status := range order {
		if n := stats.StatusCounts[status]; n > 0 {
			fmt.Printf("  %-11s %d\n", status, n)
		}
	}

	fmt.Printf("Tasks: %d/%d done (%d%%) %s\n",
		stats.CompletedTaskCount, stats.TaskCount,
		stats.CompletionPercentage, progressBar(stats.CompletionPercentage))

	if unread := st.UnreadCount(); unread > 0 {
		fmt.Printf("Unread notifications: %d\n", unread)
	}
	return nil
}
