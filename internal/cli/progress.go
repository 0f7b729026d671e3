package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projectflow/projectflow/internal/aggregate"
)

var progressCmd = &cobra.Command{
	Use:   "progress <project-id>",
	Short: "Show per-member completion for a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgress,
}

func runProgress(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	st, err := loggedInStore(ctx)
	if err != nil {
		return err
	}

	p, ok := st.Project(args[0])
	if !ok {
		return fmt.Errorf("project %s not found", args[0])
	}

	team := aggregate.ForProject(&p)
	overall := aggregate.ForTasks(p.Tasks)

	fmt.Printf("%s: %d/%d tasks done (%d%%)\n\n",
		p.Name, overall.CompletedTaskCount, overall.TaskCount, overall.CompletionPercentage)

	for _, m := range team.Members {
		tag := ""
		if m.IsManager {
			tag = " (manager)"
		}
		fmt.Printf("  %-25s %s  %d/%d done (%d%%)\n",
			m.Member.Name+tag, progressBar(m.CompletionPercentage),
			m.CompletedTaskCount, m.TaskCount, m.CompletionPercentage)
	}

	if team.Unassigned.TaskCount > 0 {
		fmt.Printf("  %-25s %s  %d/%d done (%d%%)\n",
			"(unassigned)", progressBar(team.Unassigned.CompletionPercentage),
			team.Unassigned.CompletedTaskCount, team.Unassigned.TaskCount,
			team.Unassigned.CompletionPercentage)
	}
	return nil
}

// progressBar renders a ten-slot text bar for a percentage in [0, 100].
func progressBar(pct int) string {
	filled := pct / 10
	bar := ""
	for i := 0; i < 10; i++ {
		if i < filled {
			bar += "#"
		} else {
			bar += "-"
		}
	}
	return "[" + bar + "]"
}
