package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projectflow/projectflow/internal/api"
	"github.com/projectflow/projectflow/internal/policy"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your projects",
	RunE:    runProjectList,
}

var projectShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show a project with its roster and tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectShow,
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectCreate,
}

var projectUpdateCmd = &cobra.Command{
	Use:   "update <project-id>",
	Short: "Update project fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectUpdate,
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project and its tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectDelete,
}

var (
	projectName        string
	projectDescription string
	projectManagerID   string
	projectMemberIDs   []string
	projectStatus      string
	projectForce       bool
)

func init() {
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectUpdateCmd)
	projectCmd.AddCommand(projectDeleteCmd)

	projectCreateCmd.Flags().StringVarP(&projectDescription, "description", "d", "", "Project description")
	projectCreateCmd.Flags().StringVarP(&projectManagerID, "manager", "m", "", "User id of the project manager")
	projectCreateCmd.Flags().StringSliceVar(&projectMemberIDs, "members", nil, "User ids of the team members")
	projectCreateCmd.Flags().StringVar(&projectStatus, "status", "", "Initial project status")
	projectUpdateCmd.Flags().StringVar(&projectName, "name", "", "New project name")
	projectUpdateCmd.Flags().StringVarP(&projectDescription, "description", "d", "", "New project description")
	projectUpdateCmd.Flags().StringVarP(&projectManagerID, "manager", "m", "", "User id of the new project manager")
	projectUpdateCmd.Flags().StringVar(&projectStatus, "status", "", "New project status")
	projectDeleteCmd.Flags().BoolVarP(&projectForce, "force", "f", false, "Skip confirmation")
}

func runProjectList(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	st, err := loggedInStore(ctx)
	if err != nil {
		return err
	}

	projects := st.Projects()
	if len(projects) == 0 {
		fmt.Println("No projects found. Create one with: projectflow project create")
		return nil
	}

	for _, p := range projects {
		manager := "-"
		if p.ProjectManager != nil {
			manager = p.ProjectManager.Name
		}
		fmt.Printf("%s  %-30s  %-11s  %3d%%  PM: %s\n",
			p.ID, p.Name, p.Status, p.CompletionPercentage, manager)
	}
	return nil
}

func runProjectShow(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("%s (%s)\n", p.Name, p.Status)
	if p.Description != "" {
		fmt.Println(p.Description)
	}
	fmt.Printf("Dates: %s to %s\n", shortDate(p.StartDate), shortDate(p.EndDate))
	fmt.Printf("Progress: %d/%d tasks done (%d%%)\n", p.CompletedTaskCount, p.TaskCount, p.CompletionPercentage)

	fmt.Println("\nTeam:")
	for _, m := range p.Members() {
		tag := ""
		if p.IsManager(m.ID) {
			tag = " (manager)"
		}
		fmt.Printf("  %s  %s%s\n", m.ID, m.Name, tag)
	}

	if len(p.Tasks) > 0 {
		fmt.Println("\nTasks:")
		for _, t := range p.Tasks {
			assignee := "unassigned"
			if t.AssignedTo != nil {
				assignee = t.AssignedTo.Name
			}
			fmt.Printf("  %s  %-30s  %-10s  %-20s  %s\n",
				t.ID, t.Title, t.Status, t.AcceptanceStatus, assignee)
		}
	}

	caps := st.Capabilities(&p)
	if caps != policy.None {
		fmt.Printf("\nYour capabilities: %s\n", caps)
	}
	return nil
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	st, err := loggedInStore(ctx)
	if err != nil {
		return err
	}

	manager := projectManagerID
	if manager == "" {
		// Default to self-managed projects.
		manager = st.Actor().ID
	}

	err = st.CreateProject(ctx, api.ProjectRequest{
		Name:           args[0],
		Description:    projectDescription,
		Status:         projectStatus,
		ProjectManager: manager,
		TeamMembers:    projectMemberIDs,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created project %q\n", args[0])
	return nil
}

func runProjectUpdate(cmd *cobra.Command, args []string) error {
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

	req := api.ProjectRequest{
		Name:           p.Name,
		Description:    p.Description,
		Status:         string(p.Status),
		ProjectManager: "",
	}
	if p.ProjectManager != nil {
		req.ProjectManager = p.ProjectManager.ID
	}
	if projectName != "" {
		req.Name = projectName
	}
	if cmd.Flags().Changed("description") {
		req.Description = projectDescription
	}
	if projectStatus != "" {
		req.Status = projectStatus
	}
	if projectManagerID != "" {
		req.ProjectManager = projectManagerID
	}

	if err := st.UpdateProject(ctx, p.ID, req); err != nil {
		return err
	}
	fmt.Println("Project updated.")
	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	st, err := loggedInStore(ctx)
	if err != nil {
		return err
	}

	if appConfig.ConfirmDelete && !projectForce {
		fmt.Printf("Delete project %s and all of its tasks? [y/N] ", args[0])
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := st.DeleteProject(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("Project deleted.")
	return nil
}
