package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	authUsername string
	authPassword string
)

// promptPassword reads the password flag or asks interactively.
func promptPassword() (string, error) {
	password := authPassword
	if password == "" {
		var err error
		password, err = pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
	}
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	if len(password) > 72 {
		// bcrypt truncates beyond this length.
		return "", fmt.Errorf("password must be at most 72 bytes")
	}
	return password, nil
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the registry server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if authUsername == "" {
			return fmt.Errorf("--username is required")
		}
		password, err := promptPassword()
		if err != nil {
			return err
		}
		client, err := httpClient()
		if err != nil {
			return err
		}
		if err := client.Login(cmd.Context(), authUsername, password); err != nil {
			return err
		}
		pterm.Success.Printf("Logged in as %s\n", authUsername)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := httpClient()
		if err != nil {
			return err
		}
		if err := client.Logout(); err != nil {
			return err
		}
		pterm.Success.Println("Logged out")
		return nil
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Register a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if authUsername == "" {
			return fmt.Errorf("--username is required")
		}
		password, err := promptPassword()
		if err != nil {
			return err
		}
		client, err := httpClient()
		if err != nil {
			return err
		}
		user, err := client.Signup(cmd.Context(), authUsername, password)
		if err != nil {
			return err
		}
		pterm.Success.Printf("Registered account %s\n", user.Username)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, signupCmd} {
		c.Flags().StringVar(&authUsername, "username", "", "Account username")
		c.Flags().StringVar(&authPassword, "password", "", "Account password (prompted when omitted)")
	}
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(signupCmd)
}
