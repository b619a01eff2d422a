package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const passwordEnv = "XOS_PASSWORD"

func passwordFlag(cmd *cobra.Command, password *string) {
	cmd.Flags().StringVarP(password, "password", "p", "", "Password (defaults to $"+passwordEnv+")")
}

func resolvePassword(password string) (string, error) {
	if password != "" {
		return password, nil
	}
	if env := os.Getenv(passwordEnv); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("password is required")
}

func usersCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := opts.client.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			for _, u := range users {
				last := "never"
				if u.LastLogin != nil {
					last = u.LastLogin.Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", u.Username, last)
			}
			return nil
		},
	})

	var password string
	create := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := resolvePassword(password)
			if err != nil {
				return err
			}
			user, err := opts.client.CreateUser(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s\n", user.Username)
			return nil
		},
	}
	passwordFlag(create, &password)
	cmd.AddCommand(create)

	return cmd
}

func loginCommand(opts *options) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Start a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := resolvePassword(password)
			if err != nil {
				return err
			}
			user, err := opts.client.Login(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.Username)
			return nil
		},
	}
	passwordFlag(cmd, &password)
	return cmd
}

func switchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <username>",
		Short: "Switch the active user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := opts.client.SwitchUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to %s\n", user.Username)
			return nil
		},
	}
}

func logoutCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := opts.client.Logout(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func whoamiCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the active user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := opts.client.Session(cmd.Context())
			if err != nil {
				return err
			}
			if user == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), user.Username)
			return nil
		},
	}
}
