package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projectflow/projectflow/internal/api"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <project-id> <title>",
	Short: "Create a task in a project",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:     "list <project-id>",
	Aliases: []string{"ls"},
	Short:   "List tasks in a project",
	Args:    cobra.ExactArgs(1),
	RunE:    runTaskList,
}

var taskMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List tasks assigned to you across all projects",
	RunE:  runTaskMine,
}

var taskAcceptCmd = &cobra.Command{
	Use:   "accept <project-id> <task-id>",
	Short: "Accept a task assigned to you",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskAccept,
}

var taskRejectCmd = &cobra.Command{
	Use:   "reject <project-id> <task-id>",
	Short: "Reject a task assigned to you",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskReject,
}

var taskCompleteCmd = &cobra.Command{
	Use:     "complete <project-id> <task-id>",
	Aliases: []string{"done"},
	Short:   "Mark an accepted task as completed",
	Args:    cobra.ExactArgs(2),
	RunE:    runTaskComplete,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <project-id> <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskDelete,
}

var (
	taskDescription string
	taskAssignee    string
	taskDueDate     string
)

func init() {
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskMineCmd)
	taskCmd.AddCommand(taskAcceptCmd)
	taskCmd.AddCommand(taskRejectCmd)
	taskCmd.AddCommand(taskCompleteCmd)
	taskCmd.AddCommand(taskDeleteCmd)

	taskAddCmd.Flags().StringVarP(&taskDescription, "description", "d", "", "Task description")
	taskAddCmd.Flags().StringVarP(&taskAssignee, "assign", "a", "", "User id of the assignee")
	taskAddCmd.Flags().StringVar(&taskDueDate, "due", "", "Due date (YYYY-MM-DD)")
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	st, err := loggedInStore(ctx)
	if err != nil {
		return err
	}

	err = st.CreateTask(ctx, args[0], api.TaskRequest{
		Title:       args[1],
		Description: taskDescription,
		AssignedTo:  taskAssignee,
		DueDate:     taskDueDate,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created task %q\n", args[1])
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
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
	if len(p.Tasks) == 0 {
		fmt.Println("No tasks in this project.")
		return nil
	}
	for _, t := range p.Tasks {
		assignee := "unassigned"
		if t.AssignedTo != nil {
			assignee = t.AssignedTo.Name
		}
		fmt.Printf("%s  %-30s  %-10s  %-20s  %s\n",
			t.ID, t.Title, t.Status, t.AcceptanceStatus, assignee)
	}
	return nil
}

func runTaskMine(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	st, err := loggedInStore(ctx)
	if err != nil {
		return err
	}

	tasks, err := st.MyTasks(ctx)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks assigned to you.")
		return nil
	}
	for _, t := range tasks {
		fmt.Printf("%s  %-30s  %-10s  %-20s  %s\n",
			t.ID, t.Title, t.Status, t.AcceptanceStatus, t.ProjectName)
	}
	return nil
}

func runTaskAccept(cmd *cobra.Command, args []string) error {
	return runAcceptance(args[0], args[1], true)
}

func runTaskReject(cmd *cobra.Command, args []string) error {
	return runAcceptance(args[0], args[1], false)
}

func runAcceptance(projectID, taskID string, accept bool) error {
	ctx, cancel := cmdContext()
	defer cancel()

	st, err := loggedInStore(ctx)
	if err != nil {
		return err
	}

	if accept {
		if err := st.AcceptTask(ctx, projectID, taskID); err != nil {
			return err
		}
		fmt.Println("Task accepted.")
		return nil
	}
	if err := st.RejectTask(ctx, projectID, taskID); err != nil {
		return err
	}
	fmt.Println("Task rejected.")
	return nil
}

func runTaskComplete(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	st, err := loggedInStore(ctx)
	if err != nil {
		return err
	}

	if err := st.CompleteTask(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Println("Task completed.")
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	st, err := loggedInStore(ctx)
	if err != nil {
		return err
	}

	if err := st.DeleteTask(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Println("Task deleted.")
	return nil
}
