package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/projectflow/projectflow/internal/api"
	"github.com/projectflow/projectflow/internal/model"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Log in to, register with, or log out of the ProjectFlow server.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the server",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear the saved session",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE:  runRegister,
}

var whoamiCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	RunE:  runWhoami,
}

var registerRole string

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(whoamiCmd)

	registerCmd.Flags().StringVar(&registerRole, "role", string(model.RoleTeamMember),
		"Account role (teamMember, projectManager, admin)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	st, err := newStore()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("Password: ")
	passwordBytes, _ := term.ReadPassword(int(syscall.Stdin))
	password := string(passwordBytes)
	fmt.Println()

	ctx, cancel := cmdContext()
	defer cancel()

	fmt.Println("Logging in...")
	if err := st.Login(ctx, email, password); err != nil {
		return err
	}

	actor := st.Actor()
	fmt.Printf("Logged in as %s (%s)\n", actor.Name, actor.Role)
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	st, err := newStore()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Name: ")
	name, _ := reader.ReadString('\n')

	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')

	fmt.Print("Password: ")
	passwordBytes, _ := term.ReadPassword(int(syscall.Stdin))
	password := string(passwordBytes)
	fmt.Println()

	ctx, cancel := cmdContext()
	defer cancel()

	err = st.Register(ctx, api.RegisterRequest{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Password: password,
		Role:     model.Role(registerRole),
	})
	if err != nil {
		return err
	}

	actor := st.Actor()
	fmt.Printf("Account created. Logged in as %s (%s)\n", actor.Name, actor.Role)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	st, err := newStore()
	if err != nil {
		return err
	}
	st.Logout()
	fmt.Println("Logged out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	st, err := newStore()
	if err != nil {
		return err
	}
	actor := st.Actor()
	if actor == nil {
		fmt.Println("Not logged in.")
		return nil
	}
	fmt.Printf("Logged in as %s <%s> (%s)\n", actor.Name, actor.Email, actor.Role)
	fmt.Printf("Server: %s\n", appConfig.ServerURL)
	return nil
}
