package main

import (
	"fmt"
	"strings"

	"library-desk/library"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check credentials and show the account role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.login(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (ID: %d, role: %s)\n", u.Username, u.ID, u.Role)
			return nil
		},
	}
}

func newUsersCmd(a *app) *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}
	users.AddCommand(newUsersListCmd(a), newUsersRegisterCmd(a), newUsersDeleteCmd(a))
	return users
}

func newUsersListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all accounts (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.loginAdmin(cmd); err != nil {
				return err
			}
			users, err := a.mgr.Accounts().ListUsers(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-5s %-30s %-6s\n", "ID", "Username", "Role")
			fmt.Fprintln(out, strings.Repeat("-", 43))
			for _, u := range users {
				fmt.Fprintf(out, "%-5d %-30s %-6s\n", u.ID, truncateString(u.Username, 30), u.Role)
			}
			return nil
		},
	}
}

func newUsersRegisterCmd(a *app) *cobra.Command {
	var (
		roleName    string
		newPassword string
	)
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account; creating an admin requires an admin login",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := library.ParseRole(roleName)
			if err != nil {
				return err
			}
			if role == library.RoleAdmin {
				if _, err := a.loginAdmin(cmd); err != nil {
					return err
				}
			}

			name := args[0]
			if newPassword == "" {
				if newPassword, err = readPassword(fmt.Sprintf("Enter password for %s: ", name)); err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
			}

			id, err := a.mgr.Accounts().Register(cmd.Context(), name, newPassword, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s '%s' with ID %d\n", role, name, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&roleName, "role", string(library.RoleUser), "account role: user or admin")
	cmd.Flags().StringVar(&newPassword, "new-password", "", "password for the new account (prompted when omitted)")
	return cmd
}

func newUsersDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete an account (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := a.loginAdmin(cmd)
			if err != nil {
				return err
			}
			id, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			if id == me.ID {
				return fmt.Errorf("%w: you cannot delete your own account while logged in", library.ErrInvalidInput)
			}
			if err := a.mgr.Accounts().DeleteUser(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d\n", id)
			return nil
		},
	}
}
