package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Manage project team members",
}

var memberAddCmd = &cobra.Command{
	Use:   "add <project-id> <user-id>",
	Short: "Add a user to a project's team",
	Args:  cobra.ExactArgs(2),
	RunE:  runMemberAdd,
}

var memberRemoveCmd = &cobra.Command{
	Use:     "remove <project-id> <user-id>",
	Aliases: []string{"rm"},
	Short:   "Remove a user from a project's team",
	Args:    cobra.ExactArgs(2),
	RunE:    runMemberRemove,
}

var memberUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users that can be added to a project",
	RunE:  runMemberUsers,
}

func init() {
	memberCmd.AddCommand(memberAddCmd)
	memberCmd.AddCommand(memberRemoveCmd)
	memberCmd.AddCommand(memberUsersCmd)
}

func runMemberAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	st, err := loggedInStore(ctx)
	if err != nil {
		return err
	}

	if err := st.AddMember(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Println("Member added.")
	return nil
}

func runMemberRemove(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	st, err := loggedInStore(ctx)
	if err != nil {
		return err
	}

	if err := st.RemoveMember(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Println("Member removed. Their task assignments are kept and show up as unassigned work.")
	return nil
}

func runMemberUsers(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	st, err := loggedInStore(ctx)
	if err != nil {
		return err
	}

	users, err := st.AssignableUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}
	for _, u := range users {
		fmt.Printf("%s  %-25s  %-30s  %s\n", u.ID, u.Name, u.Email, u.Role)
	}
	return nil
}
